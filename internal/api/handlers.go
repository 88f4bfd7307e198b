package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"phmagent/domain/core"
	"phmagent/domain/vibration"
	apperrors "phmagent/internal/errors"
	"phmagent/internal/report"

	"github.com/gin-gonic/gin"
)

const (
	defaultPreviewRows = 5
	maxPreviewRows     = 100
)

type valuesRequest struct {
	Values []float64 `json:"values"`
}

// respondError writes {code, error} with the status of the error's kind
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)

	msg := appErr.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v [%s]", c.Request.Method, c.Request.URL.Path, err, c.GetString(requestIDKey))
		msg = appErr.Message
	}
	c.JSON(status, gin.H{
		"code":       appErr.Code,
		"error":      msg,
		"request_id": c.GetString(requestIDKey),
	})
}

func (s *Server) dateParam(c *gin.Context) (core.Date, bool) {
	date, err := core.ParseDate(c.Param("date"))
	if err != nil {
		s.respondError(c, err)
		return core.Date{}, false
	}
	return date, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"table":  s.vibration.Table(),
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleColumns(c *gin.Context) {
	columns, err := s.vibration.Columns(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := gin.H{"table": s.vibration.Table(), "columns": columns}
	if roles, err := s.vibration.ResolveColumns(c.Request.Context()); err == nil {
		resp["roles"] = roles
	} else {
		resp["schema_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePreview(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPreviewRows)))
	if err != nil || limit < 1 || limit > maxPreviewRows {
		s.respondError(c, apperrors.InvalidInput(fmt.Sprintf("limit must be between 1 and %d", maxPreviewRows)))
		return
	}
	preview, err := s.vibration.Preview(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) handleReadings(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}
	result, err := s.vibration.ReadingsOnDate(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleMax(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}
	result, err := s.vibration.MaxOnDate(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSummary(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}
	summary, err := s.vibration.SummaryOnDate(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date.String(), "summary": summary, "std_dev": summary.StdDev()})
}

func (s *Server) handleProfile(c *gin.Context) {
	date, ok := s.dateParam(c)
	if !ok {
		return
	}
	result, err := s.vibration.ProfileOnDate(c.Request.Context(), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSummaryRange(c *gin.Context) {
	from, err := core.ParseDate(c.Query("from"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	to, err := core.ParseDate(c.DefaultQuery("to", c.Query("from")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	days, err := s.vibration.SummaryRange(c.Request.Context(), from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from.String(), "to": to.String(), "days": days})
}

func (s *Server) outlierReport(c *gin.Context) (*vibration.OutlierReport, bool) {
	date, ok := s.dateParam(c)
	if !ok {
		return nil, false
	}
	threshold := s.vibration.DefaultThreshold()
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.respondError(c, fmt.Errorf("%w: %q is not a number", core.ErrInvalidThreshold, raw))
			return nil, false
		}
		threshold = v
	}

	result, err := s.vibration.OutliersOnDate(c.Request.Context(), date, threshold)
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	if len(result.Outliers) > 0 {
		s.events.Publish(Event{
			Table:     s.vibration.Table(),
			EventType: EventOutliersFound,
			Data: map[string]interface{}{
				"date":      result.Date,
				"count":     len(result.Outliers),
				"threshold": result.Threshold,
			},
		})
	}
	return result, true
}

func (s *Server) handleOutliers(c *gin.Context) {
	result, ok := s.outlierReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleReport(c *gin.Context) {
	result, ok := s.outlierReport(c)
	if !ok {
		return
	}
	md := report.OutlierMarkdown(result)
	if strings.Contains(c.GetHeader("Accept"), "text/markdown") {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
		return
	}
	page, err := report.Page("Vibration "+result.Date, md, s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("body must be {\"values\": [numbers]}"))
		return
	}
	summary, err := s.vibration.AnalyzeList(req.Values)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "std_dev": summary.StdDev()})
}

func (s *Server) handleSum(c *gin.Context) {
	var req valuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidInput("body must be {\"values\": [numbers]}"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"sum": s.vibration.Sum(req.Values), "count": len(req.Values)})
}

func (s *Server) handleTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"time": s.tools.CurrentTime().Format(time.RFC3339)})
}

func (s *Server) handleWeather(c *gin.Context) {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		s.respondError(c, apperrors.InvalidInput("city parameter required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city, "forecast": s.tools.Weather(city)})
}

func (s *Server) handleEvents(c *gin.Context) {
	s.events.stream(c, c.DefaultQuery("table", s.vibration.Table()))
}

func (s *Server) handleIngest(c *gin.Context) {
	// The cap must be in place before anything parses the multipart body.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	if c.Request.ContentLength > s.maxUpload {
		s.respondError(c, apperrors.TooLarge(s.maxUpload))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(c, apperrors.TooLarge(s.maxUpload))
			return
		}
		s.respondError(c, apperrors.InvalidInput("multipart field \"file\" required"))
		return
	}
	table := c.DefaultPostForm("table", s.vibration.Table())
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		s.respondError(c, apperrors.InvalidInput("only .csv and .xlsx files are accepted"))
		return
	}

	dir, err := os.MkdirTemp("", "phm-ingest-")
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		s.respondError(c, err)
		return
	}

	s.events.Publish(Event{Table: table, EventType: EventIngestStarted, Data: map[string]interface{}{"file": file.Filename}})
	result, err := s.ingest.IngestFile(c.Request.Context(), table, path, c.PostForm("sheet"))
	if err != nil {
		s.events.Publish(Event{Table: table, EventType: EventIngestFailed, Data: map[string]interface{}{"file": file.Filename, "error": err.Error()}})
		s.respondError(c, err)
		return
	}
	s.events.Publish(Event{Table: table, EventType: EventIngestCompleted, Data: map[string]interface{}{
		"file":     file.Filename,
		"batch_id": result.BatchID.String(),
		"rows":     result.Rows,
	}})
	c.JSON(http.StatusCreated, result)
}
