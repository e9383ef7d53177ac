package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"progsite-backend/config"
	"progsite-backend/internal/api"
	"progsite-backend/internal/db"
	"progsite-backend/internal/push"
	"progsite-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "progsite-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Build the VAPID configuration once. It is validated again on every
	// broadcast so a misconfigured key pair degrades the broadcast endpoint
	// to a configuration error instead of crashing the process.
	vapid := push.NewVAPIDConfig(&cfg.Push)
	if err := vapid.Validate(); err != nil {
		logger.Printf("warning: %v; broadcasts will fail until fixed", err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	broadcaster := push.NewBroadcaster(appStore, vapid, cfg.Fanout.Workers)

	// Initialize router
	router := api.NewRouter(appStore, broadcaster, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
