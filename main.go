package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"phmagent/internal/config"
	"phmagent/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.Open(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := appContainer.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	server := appContainer.APIServer()
	if err := server.Run(ctx, ":"+appConfig.Server.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
