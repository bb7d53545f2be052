package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-sync-backend/config"
	"device-sync-backend/internal/event"
	"device-sync-backend/internal/model"
	"device-sync-backend/internal/store"
)

// fakeRegistry is an in-memory RegistryStore.
type fakeRegistry struct {
	mu      sync.Mutex
	devices map[uuid.UUID]model.Device
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{devices: make(map[uuid.UUID]model.Device)}
}

func (r *fakeRegistry) CreateDevice(ctx context.Context, dev *model.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[dev.ID] = *dev
	return nil
}

func (r *fakeRegistry) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return store.ErrDeviceNotFound
	}
	delete(r.devices, id)
	return nil
}

func (r *fakeRegistry) GetDevice(ctx context.Context, id uuid.UUID) (model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dev, ok := r.devices[id]
	if !ok {
		return model.Device{}, store.ErrDeviceNotFound
	}
	return dev, nil
}

func (r *fakeRegistry) ListDevices(ctx context.Context) ([]model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	devices := make([]model.Device, 0, len(r.devices))
	for _, dev := range r.devices {
		devices = append(devices, dev)
	}
	return devices, nil
}

// fakePublisher records published envelopes and can be made to fail.
type fakePublisher struct {
	mu        sync.Mutex
	published []event.Envelope
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, env event.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, env)
	return nil
}

func newTestRouter(registry store.RegistryStore, publisher EventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewManagementRouter(registry, publisher, &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
	})
}

func TestRegisterDevice_PublishesRegisteredEvent(t *testing.T) {
	registry := newFakeRegistry()
	publisher := &fakePublisher{}
	router := newTestRouter(registry, publisher)

	body := map[string]any{
		"deviceType":   "sensor",
		"name":         "hallway thermometer",
		"model":        "TH-200",
		"serialNumber": "SN-0042",
		"status":       "active",
		"ownerUserId":  "9a1de1a1-0db8-4d38-9f6a-3e5b2c4c7a01",
		"homeId":       "2c3b9f6e-7d10-47ab-8f27-0f3d9f2a6b55",
	}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)

	require.Len(t, publisher.published, 1)
	env := publisher.published[0]
	assert.Equal(t, created.ID, env.DeviceID)
	assert.Equal(t, event.KindRegistered, env.Kind)
	require.NotNil(t, env.Details)
	assert.Equal(t, "sensor", env.Details.DeviceType)
	assert.Equal(t, "9a1de1a1-0db8-4d38-9f6a-3e5b2c4c7a01", env.Details.UserID)
}

func TestRegisterDevice_PublishFailureIsSurfaced(t *testing.T) {
	registry := newFakeRegistry()
	publisher := &fakePublisher{err: errors.New("broker unreachable")}
	router := newTestRouter(registry, publisher)

	body := map[string]any{
		"deviceType":  "sensor",
		"name":        "n",
		"ownerUserId": "9a1de1a1-0db8-4d38-9f6a-3e5b2c4c7a01",
		"homeId":      "2c3b9f6e-7d10-47ab-8f27-0f3d9f2a6b55",
	}
	payload, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// The row is committed but the event never made it out; the caller sees
	// an explicit failure, not a silent success.
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, registry.devices, 1)
}

func TestRegisterDevice_ValidationFailure(t *testing.T) {
	router := newTestRouter(newFakeRegistry(), &fakePublisher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/devices", bytes.NewReader([]byte(`{"name": "no type"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDevice_PublishesDeletedEvent(t *testing.T) {
	registry := newFakeRegistry()
	publisher := &fakePublisher{}
	router := newTestRouter(registry, publisher)

	dev := model.Device{ID: uuid.New()}
	require.NoError(t, registry.CreateDevice(context.Background(), &dev))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/devices/"+dev.ID.String(), nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, event.KindDeleted, publisher.published[0].Kind)
	assert.Nil(t, publisher.published[0].Details)
}

func TestDeleteDevice_UnknownIDDoesNotPublish(t *testing.T) {
	publisher := &fakePublisher{}
	router := newTestRouter(newFakeRegistry(), publisher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/devices/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, publisher.published)
}
