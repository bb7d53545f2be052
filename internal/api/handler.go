package api

import (
	"context"

	"device-sync-backend/internal/event"
	"device-sync-backend/internal/store"
)

// EventPublisher publishes a lifecycle envelope and blocks until the broker
// acknowledges it.
type EventPublisher interface {
	Publish(ctx context.Context, env event.Envelope) error
}

// ManagementHandler holds the dependencies of the device-management API.
type ManagementHandler struct {
	registry  store.RegistryStore
	publisher EventPublisher
}

// NewManagementHandler creates the device-management API handler.
func NewManagementHandler(registry store.RegistryStore, publisher EventPublisher) *ManagementHandler {
	return &ManagementHandler{
		registry:  registry,
		publisher: publisher,
	}
}

// TelemetryHandler holds the dependencies of the telemetry API.
type TelemetryHandler struct {
	projection store.ProjectionStore
}

// NewTelemetryHandler creates the telemetry API handler.
func NewTelemetryHandler(projection store.ProjectionStore) *TelemetryHandler {
	return &TelemetryHandler{projection: projection}
}
