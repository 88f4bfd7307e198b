package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"phmagent/internal/config"
	"phmagent/internal/container"
	"phmagent/internal/mcp"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	defer c.Shutdown(context.Background())

	if err := c.Open(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	server := mcp.NewServer(&mcp.ServerConfig{
		Handlers:       mcp.NewHandlers(c.Vibration, c.Tools),
		Logger:         c.Logger,
		Port:           cfg.MCP.Port,
		SessionTimeout: cfg.MCP.SessionTimeout,
	})

	switch cfg.MCP.Transport {
	case "http":
		err = server.ServeHTTP(ctx)
	default:
		err = server.ServeStdio(ctx)
	}
	if err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
