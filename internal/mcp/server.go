package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"phmagent/internal"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// ServerName is the MCP server name.
	ServerName = "phmagent"
	// ServerVersion is the MCP server version.
	ServerVersion = "1.0.0"
)

// ServerInstructions provides usage guidance for LLMs.
const ServerInstructions = `phmagent answers questions about equipment vibration readings stored in a sensor table.

Available tools:
- get_vibration_all_on_date: every vibration reading of one day
- get_vibration_max_on_date: the largest vibration reading of one day
- find_vibration_outliers_on_date: readings more than N standard deviations from the day's mean
- analyze_vibration_list: count, mean, variance, min and max of a list of numbers
- calculate_sum: sum of a list of numbers
- get_current_time, get_weather, add: general utilities

Dates are YYYY-MM-DD. Errors start with a code: NO_DATA (no rows that day),
SCHEMA_DETECTION (the table has no time or vibration column), EMPTY_INPUT
(no numeric values), INVALID_INPUT (bad date or threshold).`

// ServerConfig holds configuration for creating an MCP server.
type ServerConfig struct {
	Name         string
	Version      string
	Instructions string
	Logger       *internal.Logger
	Handlers     *Handlers

	// Transport settings
	Port           int
	SessionTimeout time.Duration
}

// Server represents the MCP server with all components.
type Server struct {
	mcpServer *mcp.Server
	config    *ServerConfig
	logger    *internal.Logger
	slog      *slog.Logger
}

// NewServer creates a new MCP server instance. Handlers is required.
func NewServer(cfg *ServerConfig) *Server {
	if cfg.Name == "" {
		cfg.Name = ServerName
	}
	if cfg.Version == "" {
		cfg.Version = ServerVersion
	}
	if cfg.Instructions == "" {
		cfg.Instructions = ServerInstructions
	}
	if cfg.Port == 0 {
		cfg.Port = 7056
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("MCP")

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		&mcp.ServerOptions{
			Instructions: cfg.Instructions,
			Logger:       logger.Slog(),
		},
	)

	registerTools(mcpServer, cfg.Handlers)

	return &Server{
		mcpServer: mcpServer,
		config:    cfg,
		logger:    logger,
		slog:      logger.Slog(),
	}
}

// MCPServer exposes the underlying SDK server, e.g. for in-memory sessions.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until ctx is cancelled or the client leaves.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the HTTP handler serving /mcp and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{
		SessionTimeout: s.config.SessionTimeout,
		Logger:         s.slog,
	})

	mux.Handle("/mcp", handler)
	s.addHealthCheck(mux)
	return mux
}

// ServeHTTP serves the streamable HTTP transport until ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting MCP server on http://localhost%s/mcp", addr)
	s.logger.Info("health check: http://localhost%s/health", addr)
	return s.runHTTPServer(ctx, addr, s.Handler())
}

func (s *Server) addHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, s.config.Version)
	})
}

// runHTTPServer runs an HTTP server with graceful shutdown on ctx.
func (s *Server) runHTTPServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		errCh <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-errCh
}

func boolPtr(b bool) *bool {
	return &b
}

// readOnly annotates tools that only read data.
func readOnly(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:          title,
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

func registerTools(server *mcp.Server, h *Handlers) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_vibration_all_on_date",
			Description: "Return every vibration reading (timestamp and value) recorded on a date, ordered by time.",
			Annotations: readOnly("All Vibration Readings On Date"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input DateInput) (*mcp.CallToolResult, AllOnDateOutput, error) {
			out, err := h.AllOnDate(ctx, input)
			return nil, out, err
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_vibration_max_on_date",
			Description: "Return the largest vibration reading recorded on a date with its timestamp.",
			Annotations: readOnly("Max Vibration On Date"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input DateInput) (*mcp.CallToolResult, MaxOnDateOutput, error) {
			out, err := h.MaxOnDate(ctx, input)
			return nil, out, err
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "find_vibration_outliers_on_date",
			Description: "Find readings on a date whose vibration is more than threshold standard deviations from the day's mean. Returns the full rows and the day's summary statistics.",
			Annotations: readOnly("Vibration Outliers On Date"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input OutliersInput) (*mcp.CallToolResult, OutliersOutput, error) {
			out, err := h.OutliersOnDate(ctx, input)
			return nil, out, err
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "analyze_vibration_list",
			Description: "Compute count, mean, population variance, min and max of a list of vibration values.",
			Annotations: readOnly("Analyze Values"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input ValuesInput) (*mcp.CallToolResult, SummaryOutput, error) {
			out, err := h.AnalyzeList(ctx, input)
			return nil, out, err
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "calculate_sum",
			Description: "Sum a list of numbers.",
			Annotations: readOnly("Sum"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input ValuesInput) (*mcp.CallToolResult, SumOutput, error) {
			return nil, h.Sum(ctx, input), nil
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_current_time",
			Description: "Return the server's current time in RFC 3339 format.",
			Annotations: &mcp.ToolAnnotations{Title: "Current Time", ReadOnlyHint: true, OpenWorldHint: boolPtr(false)},
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, TimeOutput, error) {
			return nil, h.CurrentTime(ctx), nil
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_weather",
			Description: "Return the weather forecast for a city.",
			Annotations: readOnly("Weather"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input WeatherInput) (*mcp.CallToolResult, WeatherOutput, error) {
			out, err := h.Weather(ctx, input)
			return nil, out, err
		},
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "add",
			Description: "Add two integers.",
			Annotations: readOnly("Add"),
		},
		func(ctx context.Context, req *mcp.CallToolRequest, input AddInput) (*mcp.CallToolResult, AddOutput, error) {
			return nil, h.Add(ctx, input), nil
		},
	)
}
