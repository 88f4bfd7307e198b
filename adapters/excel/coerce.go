package excel

import (
	"fmt"
	"strconv"
	"time"

	"phmagent/ports"
)

// TimeLayouts are tried in order when a cell should hold a timestamp.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04",
	"1/2/06 15:04",
	"01-02-06 15:04",
	"2006-01-02",
}

// InferColumnKinds picks numeric when every non-empty cell parses as a
// number, timestamp when every non-empty cell parses as a time, text otherwise.
func InferColumnKinds(data *SensorFile) []ports.ColumnDef {
	defs := make([]ports.ColumnDef, len(data.Headers))
	for i, header := range data.Headers {
		numeric, timestamp, nonEmpty := true, true, 0
		for _, row := range data.Rows {
			cell := row[header]
			if cell == "" {
				continue
			}
			nonEmpty++
			if numeric {
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					numeric = false
				}
			}
			if timestamp {
				if _, ok := ParseTime(cell); !ok {
					timestamp = false
				}
			}
			if !numeric && !timestamp {
				break
			}
		}

		kind := ports.ColumnText
		switch {
		case nonEmpty == 0:
		case numeric:
			kind = ports.ColumnNumeric
		case timestamp:
			kind = ports.ColumnTimestamp
		}
		defs[i] = ports.ColumnDef{Name: header, Kind: kind}
	}
	return defs
}

// ParseTime tries every layout in TimeLayouts.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ConvertCell turns a cell into the value stored for kind. Empty cells are NULL.
func ConvertCell(kind ports.ColumnKind, cell string) (interface{}, error) {
	if cell == "" {
		return nil, nil
	}
	switch kind {
	case ports.ColumnNumeric:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", cell)
		}
		return f, nil
	case ports.ColumnTimestamp:
		t, ok := ParseTime(cell)
		if !ok {
			return nil, fmt.Errorf("not a timestamp: %q", cell)
		}
		return t, nil
	default:
		return cell, nil
	}
}
