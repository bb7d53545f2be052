package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"device-sync-backend/internal/model"
	"device-sync-backend/internal/store"
)

// GetDevice handles GET /api/devices/:id over the local projection. A device
// appears here only after its Registered event has been consumed.
func (h *TelemetryHandler) GetDevice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	dev, err := h.projection.GetDevice(c.Request.Context(), id)
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

// ListDevices handles GET /api/devices over the local projection.
func (h *TelemetryHandler) ListDevices(c *gin.Context) {
	devices, err := h.projection.ListDevices(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, devices)
}

type ingestReadingRequest struct {
	DeviceID string  `json:"deviceId" binding:"required,uuid"`
	Metric   string  `json:"metric" binding:"required"`
	Value    float64 `json:"value"`
}

// IngestReading handles POST /api/telemetry. Readings for devices absent
// from the projection are rejected: either the device never existed or its
// Registered event has not arrived yet.
func (h *TelemetryHandler) IngestReading(c *gin.Context) {
	var req ingestReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deviceID := uuid.MustParse(req.DeviceID)
	if _, err := h.projection.GetDevice(c.Request.Context(), deviceID); err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	reading := model.TelemetryReading{
		DeviceID:   deviceID,
		Metric:     req.Metric,
		Value:      req.Value,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.projection.InsertReading(c.Request.Context(), &reading); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, reading)
}

// ListReadings handles GET /api/devices/:id/telemetry.
func (h *TelemetryHandler) ListReadings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	readings, err := h.projection.ListReadings(c.Request.Context(), id, c.Query("metric"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, readings)
}
