package main

import (
	"context"
	"log"

	"ai-assistant-be/internal/bootstrap"
	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/server"
	"ai-assistant-be/internal/tracer"
	"ai-assistant-be/pkg/database"
)

func main() {
	// 0. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Configuration
	cfg := config.Load()

	// 2. Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Dependency container
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Background workers
	go func() {
		log.Println("Background: Starting reply generation worker...")
		if err := container.GenerationService.Consume(context.Background()); err != nil {
			log.Printf("Background generation worker error: %v", err)
		}
	}()

	// 5. HTTP server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
