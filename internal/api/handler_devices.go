package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"device-sync-backend/internal/event"
	"device-sync-backend/internal/model"
	"device-sync-backend/internal/store"
)

type registerDeviceRequest struct {
	DeviceType   string `json:"deviceType" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Model        string `json:"model"`
	Address      string `json:"address"`
	SerialNumber string `json:"serialNumber"`
	Status       string `json:"status"`
	OwnerUserID  string `json:"ownerUserId" binding:"required,uuid"`
	HomeID       string `json:"homeId" binding:"required,uuid"`
}

// RegisterDevice handles POST /api/devices: it writes the authoritative row
// and then publishes the Registered event, blocking until the broker
// acknowledges. A publish failure is reported to the caller even though the
// row may already be committed; there is no outbox between the two writes.
func (h *ManagementHandler) RegisterDevice(c *gin.Context) {
	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dev := model.Device{
		ID:           uuid.New(),
		DeviceType:   req.DeviceType,
		Name:         req.Name,
		Model:        req.Model,
		Address:      req.Address,
		SerialNumber: req.SerialNumber,
		Status:       req.Status,
		OwnerUserID:  uuid.MustParse(req.OwnerUserID),
		HomeID:       uuid.MustParse(req.HomeID),
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.registry.CreateDevice(c.Request.Context(), &dev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	env := event.Envelope{
		DeviceID: dev.ID,
		Kind:     event.KindRegistered,
		Details: &event.RegisteredDetails{
			DeviceType:    dev.DeviceType,
			Name:          dev.Name,
			Model:         dev.Model,
			DeviceAddress: dev.Address,
			SerialNumber:  dev.SerialNumber,
			Status:        dev.Status,
			UserID:        dev.OwnerUserID.String(),
			HomeID:        dev.HomeID.String(),
		},
	}
	if err := h.publisher.Publish(c.Request.Context(), env); err != nil {
		log.Printf("device %s registered but event not published: %v", dev.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "device registered but event publish failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dev)
}

// DeleteDevice handles DELETE /api/devices/:id.
func (h *ManagementHandler) DeleteDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	if err := h.registry.DeleteDevice(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	env := event.Envelope{DeviceID: id, Kind: event.KindDeleted}
	if err := h.publisher.Publish(c.Request.Context(), env); err != nil {
		log.Printf("device %s deleted but event not published: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "device deleted but event publish failed: " + err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetDevice handles GET /api/devices/:id over the authoritative table.
func (h *ManagementHandler) GetDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	dev, err := h.registry.GetDevice(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, dev)
}

// ListDevices handles GET /api/devices over the authoritative table.
func (h *ManagementHandler) ListDevices(c *gin.Context) {
	devices, err := h.registry.ListDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, devices)
}
