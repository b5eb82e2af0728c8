package models

import (
	"encoding/json"
	"time"
)

// TelemetryReading is one sensor sample reported by a gate device
// (door state, temperature, scanner battery and so on).
type TelemetryReading struct {
	ID         string          `db:"id" json:"id"`
	DeviceID   string          `db:"device_id" json:"device_id"`
	SensorType string          `db:"sensor_type" json:"sensor_type"`
	Value      float64         `db:"value" json:"value"`
	Unit       string          `db:"unit" json:"unit"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	RecordedAt time.Time       `db:"recorded_at" json:"recorded_at"`
}
