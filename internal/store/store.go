package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"device-sync-backend/internal/model"
)

// ErrDeviceNotFound is returned by lookups and registry deletes for ids with
// no device row.
var ErrDeviceNotFound = errors.New("device not found")

// RegistryStore is the device-management service's view of the database: the
// authoritative device table.
type RegistryStore interface {
	CreateDevice(ctx context.Context, dev *model.Device) error
	DeleteDevice(ctx context.Context, id uuid.UUID) error
	GetDevice(ctx context.Context, id uuid.UUID) (model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
}

// ProjectionStore is the telemetry service's view: the event-driven device
// projection plus telemetry readings. ApplyRegistered and ApplyDeleted are
// idempotent so that redelivered events are harmless; concurrency for
// different device ids is delegated to the database's per-row atomicity.
type ProjectionStore interface {
	ApplyRegistered(ctx context.Context, dev model.Device) error
	ApplyDeleted(ctx context.Context, id uuid.UUID) error
	GetDevice(ctx context.Context, id uuid.UUID) (model.Device, error)
	ListDevices(ctx context.Context) ([]model.Device, error)
	InsertReading(ctx context.Context, reading *model.TelemetryReading) error
	ListReadings(ctx context.Context, deviceID uuid.UUID, metric string, limit int) ([]model.TelemetryReading, error)
}

// GormStore implements both store views using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ApplyRegistered inserts the device, ignoring the insert if the primary key
// already exists. A redelivered Registered event therefore changes nothing.
func (s *GormStore) ApplyRegistered(ctx context.Context, dev model.Device) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&dev)
	if res.Error != nil {
		return fmt.Errorf("failed to apply registered event for device %s: %w", dev.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("store: device %s already present, registered event ignored", dev.ID)
	}
	return nil
}

// ApplyDeleted removes the device row if present. Deleting an absent id is a
// no-op, so a redelivered Deleted event changes nothing.
func (s *GormStore) ApplyDeleted(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&model.Device{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to apply deleted event for device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("store: device %s not present, deleted event ignored", id)
	}
	return nil
}

// CreateDevice inserts a new authoritative device row.
func (s *GormStore) CreateDevice(ctx context.Context, dev *model.Device) error {
	if err := s.db.WithContext(ctx).Create(dev).Error; err != nil {
		return fmt.Errorf("failed to create device %s: %w", dev.ID, err)
	}
	return nil
}

// DeleteDevice removes an authoritative device row, reporting
// ErrDeviceNotFound for unknown ids.
func (s *GormStore) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&model.Device{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete device %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// GetDevice fetches one device by id.
func (s *GormStore) GetDevice(ctx context.Context, id uuid.UUID) (model.Device, error) {
	var dev model.Device
	err := s.db.WithContext(ctx).First(&dev, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Device{}, ErrDeviceNotFound
	}
	if err != nil {
		return model.Device{}, fmt.Errorf("failed to fetch device %s: %w", id, err)
	}
	return dev, nil
}

// ListDevices fetches all devices.
func (s *GormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("created_at").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// InsertReading stores one telemetry reading.
func (s *GormStore) InsertReading(ctx context.Context, reading *model.TelemetryReading) error {
	if err := s.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("failed to insert reading for device %s: %w", reading.DeviceID, err)
	}
	return nil
}

// ListReadings fetches recent readings for a device, newest first. metric
// filters to one metric when non-empty.
func (s *GormStore) ListReadings(ctx context.Context, deviceID uuid.UUID, metric string, limit int) ([]model.TelemetryReading, error) {
	q := s.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if metric != "" {
		q = q.Where("metric = ?", metric)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var readings []model.TelemetryReading
	if err := q.Order("recorded_at DESC").Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to list readings for device %s: %w", deviceID, err)
	}
	return readings, nil
}
