// Package api serves the vibration engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"phmagent/app"
	"phmagent/internal"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP front of the vibration engine
type Server struct {
	router    *gin.Engine
	vibration *app.VibrationService
	ingest    *app.IngestService
	tools     *app.Toolbox
	events    *EventHub
	logger    *internal.Logger
	now       func() time.Time
	maxUpload int64
}

// Deps are the services the server routes to. Ingest is optional.
type Deps struct {
	Vibration *app.VibrationService
	Ingest    *app.IngestService
	Tools     *app.Toolbox
	Events    *EventHub
	Logger    *internal.Logger
}

// NewServer creates the server and registers its routes
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	events := deps.Events
	if events == nil {
		events = NewEventHub(logger)
	}
	tools := deps.Tools
	if tools == nil {
		tools = app.NewToolbox(nil)
	}

	s := &Server{
		router:    gin.New(),
		vibration: deps.Vibration,
		ingest:    deps.Ingest,
		tools:     tools,
		events:    events,
		logger:    logger.With("API"),
		now:       time.Now,
		maxUpload: 64 << 20,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Events returns the server's event hub
func (s *Server) Events() *EventHub {
	return s.events
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(RequestID())
	s.router.Use(AccessLog(s.logger))
	s.router.MaxMultipartMemory = 8 << 20
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/columns", s.handleColumns)
		v1.GET("/preview", s.handlePreview)
		v1.GET("/readings/:date", s.handleReadings)
		v1.GET("/max/:date", s.handleMax)
		v1.GET("/summary/:date", s.handleSummary)
		v1.GET("/summary", s.handleSummaryRange)
		v1.GET("/profile/:date", s.handleProfile)
		v1.GET("/outliers/:date", s.handleOutliers)
		v1.GET("/report/:date", s.handleReport)
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/sum", s.handleSum)
		v1.GET("/time", s.handleTime)
		v1.GET("/weather", s.handleWeather)
		v1.GET("/events", s.handleEvents)
		if s.ingest != nil {
			v1.POST("/ingest", s.handleIngest)
		}
	}
}

// Run serves on addr until ctx is cancelled, then drains for up to 10s
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.events.Close()
	return srv.Shutdown(shutdownCtx)
}
