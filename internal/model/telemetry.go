package model

import (
	"time"

	"github.com/google/uuid"
)

// TelemetryReading represents a single measurement reported for a device.
type TelemetryReading struct {
	ID         int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DeviceID   uuid.UUID `gorm:"type:uuid;not null;index:idx_reading_device_time,priority:1" json:"deviceId"`
	Metric     string    `gorm:"size:64;not null" json:"metric"`
	Value      float64   `gorm:"not null" json:"value"`
	RecordedAt time.Time `gorm:"not null;index:idx_reading_device_time,priority:2" json:"recordedAt"`
}
