package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// TelemetryRepository stores sensor samples reported by gate devices.
type TelemetryRepository struct {
	db *sqlx.DB
}

// NewTelemetryRepository constructs the repository.
func NewTelemetryRepository(db *sqlx.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

const telemetryColumns = `id, device_id, sensor_type, value, unit, metadata, recorded_at`

// Insert appends a reading.
func (r *TelemetryRepository) Insert(ctx context.Context, reading *models.TelemetryReading) error {
	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO device_telemetry (id, device_id, sensor_type, value, unit, metadata, recorded_at)
	VALUES (:id, :device_id, :sensor_type, :value, :unit, :metadata, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reading); err != nil {
		return fmt.Errorf("insert telemetry: %w", err)
	}
	return nil
}

// ListByDevice returns recent readings for a device, newest first.
func (r *TelemetryRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.TelemetryReading, error) {
	query := `SELECT ` + telemetryColumns + ` FROM device_telemetry WHERE device_id = $1 ORDER BY recorded_at DESC LIMIT $2`
	var readings []models.TelemetryReading
	if err := r.db.SelectContext(ctx, &readings, query, deviceID, limit); err != nil {
		return nil, fmt.Errorf("list telemetry: %w", err)
	}
	return readings, nil
}

// Latest returns the most recent reading for a device.
func (r *TelemetryRepository) Latest(ctx context.Context, deviceID string) (*models.TelemetryReading, error) {
	query := `SELECT ` + telemetryColumns + ` FROM device_telemetry WHERE device_id = $1 ORDER BY recorded_at DESC LIMIT 1`
	var reading models.TelemetryReading
	if err := r.db.GetContext(ctx, &reading, query, deviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("latest telemetry: %w", err)
	}
	return &reading, nil
}
