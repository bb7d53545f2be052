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

	"device-sync-backend/config"
	"device-sync-backend/internal/api"
	"device-sync-backend/internal/broker"
	"device-sync-backend/internal/db"
	"device-sync-backend/internal/model"
	"device-sync-backend/internal/store"
	"device-sync-backend/internal/worker"
)

func main() {
	log.SetPrefix("telemetryd ")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	log.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database, &model.Device{}, &model.TelemetryReading{})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The consumer loop reconnects on its own after transient errors; the
	// supervisor restarts the whole task when subscription itself fails, and
	// gives up after the configured attempt budget.
	loop := broker.NewConsumerLoop(broker.DialSource(&cfg.Broker), appStore, cfg.Retry.ConsumerBackoff)
	supervisor := worker.NewSupervisor("device event consumer", loop.Run,
		cfg.Retry.SupervisorDelay, cfg.Retry.SupervisorAttempts)

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- supervisor.Run(ctx)
	}()

	router := api.NewTelemetryRouter(appStore, &cfg.Telemetry)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Telemetry.Port),
		Handler: router,
	}

	go func() {
		log.Printf("HTTP server starting on port %d", cfg.Telemetry.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var fatal error
	select {
	case <-stop:
		log.Println("Shutdown signal received, stopping services...")
	case fatal = <-consumerErr:
		if fatal != nil {
			log.Printf("device event consumer failed permanently: %v", fatal)
		} else {
			log.Println("device event consumer exited")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server Shutdown: %v", err)
	}

	if fatal != nil {
		os.Exit(1)
	}
	log.Println("Server gracefully stopped")
}
