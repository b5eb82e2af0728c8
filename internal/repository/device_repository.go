package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

// DeviceRepository manages the checkpoint scanner registry.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository constructs the repository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

const deviceColumns = `id, name, location, api_key_hash, active, created_at, updated_at`

// Create inserts a new device.
func (r *DeviceRepository) Create(ctx context.Context, device *models.GateDevice) error {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	const query = `INSERT INTO gate_devices (id, name, location, api_key_hash, active, created_at, updated_at)
	VALUES (:id, :name, :location, :api_key_hash, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, device); err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

// GetByID fetches a device by identifier.
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.GateDevice, error) {
	query := `SELECT ` + deviceColumns + ` FROM gate_devices WHERE id = $1 LIMIT 1`
	var device models.GateDevice
	if err := r.db.GetContext(ctx, &device, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find device by id: %w", err)
	}
	return &device, nil
}

// FindActiveByKeyHash resolves a device from its hashed API key.
func (r *DeviceRepository) FindActiveByKeyHash(ctx context.Context, keyHash string) (*models.GateDevice, error) {
	query := `SELECT ` + deviceColumns + ` FROM gate_devices WHERE api_key_hash = $1 AND active = TRUE LIMIT 1`
	var device models.GateDevice
	if err := r.db.GetContext(ctx, &device, query, keyHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find device by key: %w", err)
	}
	return &device, nil
}

// List returns all registered devices.
func (r *DeviceRepository) List(ctx context.Context) ([]models.GateDevice, error) {
	query := `SELECT ` + deviceColumns + ` FROM gate_devices ORDER BY created_at DESC`
	var devices []models.GateDevice
	if err := r.db.SelectContext(ctx, &devices, query); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

// UpdateDeviceParams groups mutable device columns; nil means keep.
type UpdateDeviceParams struct {
	ID       string
	Name     *string
	Location *string
	Active   *bool
}

// Update mutates the provided fields.
func (r *DeviceRepository) Update(ctx context.Context, params UpdateDeviceParams) error {
	setParts := []string{"updated_at = :updated_at"}
	if params.Name != nil {
		setParts = append(setParts, "name = :name")
	}
	if params.Location != nil {
		setParts = append(setParts, "location = :location")
	}
	if params.Active != nil {
		setParts = append(setParts, "active = :active")
	}
	query := fmt.Sprintf("UPDATE gate_devices SET %s WHERE id = :id", strings.Join(setParts, ", "))
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         params.ID,
		"name":       params.Name,
		"location":   params.Location,
		"active":     params.Active,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return requireRow(result)
}

// Delete removes a device registration.
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM gate_devices WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	return requireRow(result)
}
