package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

type telemetryRepository interface {
	Insert(ctx context.Context, reading *models.TelemetryReading) error
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.TelemetryReading, error)
	Latest(ctx context.Context, deviceID string) (*models.TelemetryReading, error)
}

const (
	defaultTelemetryLimit = 100
	maxTelemetryLimit     = 1000
)

// TelemetryService records and serves gate device sensor readings.
type TelemetryService struct {
	repo      telemetryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTelemetryService constructs a TelemetryService instance.
func NewTelemetryService(repo telemetryRepository, validate *validator.Validate, logger *zap.Logger) *TelemetryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TelemetryService{repo: repo, validator: validate, logger: logger}
}

// Ingest stores a reading attributed to the authenticated device.
func (s *TelemetryService) Ingest(ctx context.Context, device *models.GateDevice, req dto.IngestTelemetryRequest) (*models.TelemetryReading, error) {
	if device == nil {
		return nil, appErrors.ErrUnauthorized
	}
	sensorType := strings.TrimSpace(req.SensorType)
	if sensorType == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sensor_type is required")
	}

	reading := &models.TelemetryReading{
		DeviceID:   device.ID,
		SensorType: sensorType,
		Value:      req.Value,
		Unit:       strings.TrimSpace(req.Unit),
		Metadata:   req.Metadata,
	}
	if err := s.repo.Insert(ctx, reading); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store telemetry")
	}
	return reading, nil
}

// Readings lists recent samples for a device, newest first. The limit is
// clamped so a dashboard cannot drag the whole table over the wire.
func (s *TelemetryService) Readings(ctx context.Context, deviceID string, limit int) ([]models.TelemetryReading, error) {
	if limit <= 0 {
		limit = defaultTelemetryLimit
	}
	if limit > maxTelemetryLimit {
		limit = maxTelemetryLimit
	}
	readings, err := s.repo.ListByDevice(ctx, deviceID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list telemetry")
	}
	return readings, nil
}

// Latest returns the newest sample for a device.
func (s *TelemetryService) Latest(ctx context.Context, deviceID string) (*models.TelemetryReading, error) {
	reading, err := s.repo.Latest(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no telemetry recorded for device")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch telemetry")
	}
	return reading, nil
}
