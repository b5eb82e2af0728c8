package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	"github.com/noah-isme/campus-gatepass-api/internal/repository"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

type deviceRepository interface {
	Create(ctx context.Context, device *models.GateDevice) error
	GetByID(ctx context.Context, id string) (*models.GateDevice, error)
	FindActiveByKeyHash(ctx context.Context, keyHash string) (*models.GateDevice, error)
	List(ctx context.Context) ([]models.GateDevice, error)
	Update(ctx context.Context, params repository.UpdateDeviceParams) error
	Delete(ctx context.Context, id string) error
}

// DeviceService manages checkpoint scanner registrations. The API key
// is returned exactly once at creation; only its hash is stored.
type DeviceService struct {
	repo      deviceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDeviceService constructs a DeviceService instance.
func NewDeviceService(repo deviceRepository, validate *validator.Validate, logger *zap.Logger) *DeviceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DeviceService{repo: repo, validator: validate, logger: logger}
}

// Create registers a new device and returns it with the plaintext key.
func (s *DeviceService) Create(ctx context.Context, req dto.CreateDeviceRequest) (*models.GateDevice, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid device payload")
	}

	key, err := newAPIKey()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate api key")
	}

	device := &models.GateDevice{
		Name:       req.Name,
		Location:   req.Location,
		APIKeyHash: HashAPIKey(key),
		Active:     true,
	}
	if err := s.repo.Create(ctx, device); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create device")
	}
	return device, key, nil
}

// List returns every registered device.
func (s *DeviceService) List(ctx context.Context) ([]models.GateDevice, error) {
	devices, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list devices")
	}
	return devices, nil
}

// Update mutates name, location or the active flag.
func (s *DeviceService) Update(ctx context.Context, id string, req dto.UpdateDeviceRequest) (*models.GateDevice, error) {
	err := s.repo.Update(ctx, repository.UpdateDeviceParams{
		ID:       id,
		Name:     req.Name,
		Location: req.Location,
		Active:   req.Active,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "device not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update device")
	}
	device, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload device")
	}
	return device, nil
}

// Delete removes a device registration.
func (s *DeviceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "device not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete device")
	}
	return nil
}

// Authenticate resolves an active device from its presented API key.
func (s *DeviceService) Authenticate(ctx context.Context, key string) (*models.GateDevice, error) {
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "device key required")
	}
	device, err := s.repo.FindActiveByKeyHash(ctx, HashAPIKey(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown or inactive device")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to authenticate device")
	}
	return device, nil
}

// HashAPIKey derives the stored digest for a device API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func newAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
