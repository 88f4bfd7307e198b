package main

import (
	"context"
	"log"
	"time"

	"phmagent/internal/config"
	"phmagent/internal/container"

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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	defer c.Shutdown(context.Background())

	if err := c.Open(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := c.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migration complete: ingest_batches and %s are in place", cfg.Sensor.Table)
}
