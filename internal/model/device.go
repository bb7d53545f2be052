package model

import (
	"time"

	"github.com/google/uuid"
)

// Device represents a registered device. The device-management service owns
// the authoritative table; the telemetry service maintains a projection with
// the same shape, populated from lifecycle events. Fields are fixed at
// registration; there is no update-in-place path.
type Device struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceType   string    `gorm:"size:64;not null" json:"deviceType"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	Model        string    `gorm:"size:128" json:"model"`
	Address      string    `gorm:"size:256" json:"address"`
	SerialNumber string    `gorm:"size:128" json:"serialNumber"`
	Status       string    `gorm:"size:64" json:"status"`
	OwnerUserID  uuid.UUID `gorm:"type:uuid;index" json:"ownerUserId"`
	HomeID       uuid.UUID `gorm:"type:uuid;index" json:"homeId"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
}
