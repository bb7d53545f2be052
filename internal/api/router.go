package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"device-sync-backend/config"
	"device-sync-backend/internal/mw"
	"device-sync-backend/internal/store"
)

// NewManagementRouter creates and configures the device-management router.
func NewManagementRouter(registry store.RegistryStore, publisher EventPublisher, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()
	handler := NewManagementHandler(registry, publisher)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/devices", handler.RegisterDevice)
		api.DELETE("/devices/:id", handler.DeleteDevice)
		api.GET("/devices", handler.ListDevices)
		api.GET("/devices/:id", handler.GetDevice)
	}

	return r
}

// NewTelemetryRouter creates and configures the telemetry router.
func NewTelemetryRouter(projection store.ProjectionStore, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()
	handler := NewTelemetryHandler(projection)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/devices", caching, handler.ListDevices)
		api.GET("/devices/:id", handler.GetDevice)
		api.GET("/devices/:id/telemetry", caching, handler.ListReadings)
		api.POST("/telemetry", handler.IngestReading)
	}

	return r
}
