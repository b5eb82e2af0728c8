package dto

import "encoding/json"

// CreateDeviceRequest registers a new checkpoint scanner.
type CreateDeviceRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

// UpdateDeviceRequest mutates device metadata; nil fields are untouched.
type UpdateDeviceRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Active   *bool   `json:"active"`
}

// IngestTelemetryRequest is one sensor sample posted by a gate device.
// The reporting device comes from its API key, never from the body.
type IngestTelemetryRequest struct {
	SensorType string          `json:"sensor_type" binding:"required"`
	Value      float64         `json:"value"`
	Unit       string          `json:"unit"`
	Metadata   json.RawMessage `json:"metadata"`
}
