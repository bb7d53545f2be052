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
)

func main() {
	log.SetPrefix("devicemgmtd ")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	log.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database, &model.Device{})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	publisher, err := broker.NewPublisher(&cfg.Broker)
	if err != nil {
		log.Fatalf("failed to initialize event publisher: %v", err)
	}
	defer publisher.Close()
	log.Printf("event publisher connected to %v (topic %q)", cfg.Broker.Seeds, cfg.Broker.Topic)

	router := api.NewManagementRouter(appStore, publisher, &cfg.Management)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Management.Port),
		Handler: router,
	}

	go func() {
		log.Printf("HTTP server starting on port %d", cfg.Management.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server Shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
