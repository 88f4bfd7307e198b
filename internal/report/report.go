// Package report renders vibration results as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"phmagent/domain/vibration"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// maxRowFields caps how many passthrough fields are shown per outlier row.
const maxRowFields = 8

// OutlierMarkdown renders an outlier report as a Markdown document
func OutlierMarkdown(r *vibration.OutlierReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Vibration report for %s\n\n", r.Date)
	fmt.Fprintf(&b, "Time column `%s`, value column `%s`.\n\n", r.Columns.Time, r.Columns.Value)

	if r.Summary != nil {
		b.WriteString(SummaryMarkdown(r.Summary))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Standard deviation: %.6g. Threshold: %.2f sigma.", r.StdDev, r.Threshold)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, " %d rows without a numeric value were skipped.", r.Skipped)
	}
	b.WriteString("\n\n")

	if len(r.Outliers) == 0 {
		b.WriteString("## Outliers\n\nNo outliers found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "## Outliers (%d)\n\n", len(r.Outliers))
	b.WriteString("| # | Value | Deviation | Row |\n|---|---|---|---|\n")
	for _, o := range r.Outliers {
		fmt.Fprintf(&b, "| %d | %.6g | %.6g | %s |\n", o.Index, o.Value, o.Deviation, rowCell(o.Row))
	}
	return b.String()
}

// SummaryMarkdown renders a summary as a two-column table
func SummaryMarkdown(s *vibration.StatisticsSummary) string {
	var b strings.Builder
	b.WriteString("| Statistic | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Count | %d |\n", s.Count)
	fmt.Fprintf(&b, "| Mean | %.6g |\n", s.Mean)
	fmt.Fprintf(&b, "| Variance | %.6g |\n", s.Variance)
	fmt.Fprintf(&b, "| Min | %.6g |\n", s.Min)
	fmt.Fprintf(&b, "| Max | %.6g |\n", s.Max)
	return b.String()
}

// RangeMarkdown renders per-day summaries
func RangeMarkdown(days []vibration.DailySummary) string {
	var b strings.Builder
	b.WriteString("| Date | Count | Mean | Min | Max |\n|---|---|---|---|---|\n")
	for _, d := range days {
		if d.NoData || d.Summary == nil {
			fmt.Fprintf(&b, "| %s | 0 | - | - | - |\n", d.Date)
			continue
		}
		s := d.Summary
		fmt.Fprintf(&b, "| %s | %d | %.6g | %.6g | %.6g |\n", d.Date, s.Count, s.Mean, s.Min, s.Max)
	}
	return b.String()
}

// ToHTML converts Markdown to an HTML fragment
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML([]byte(md), p, renderer)
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
{{.Body}}
<footer>Generated {{.Generated}}</footer>
</body>
</html>
`))

// Page wraps rendered Markdown into a standalone HTML document
func Page(title, md string, generated time.Time) ([]byte, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title     string
		Body      template.HTML
		Generated string
	}{
		Title:     title,
		Body:      template.HTML(ToHTML(md)),
		Generated: generated.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowCell(row vibration.Row) string {
	parts := make([]string, 0, len(row))
	for i, f := range row {
		if i == maxRowFields {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%s=%s", f.Name, formatValue(f.Value)))
	}
	return escapeCell(strings.Join(parts, ", "))
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	case float64:
		return fmt.Sprintf("%.6g", x)
	}
	return fmt.Sprint(v)
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
