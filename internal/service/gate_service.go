package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/face"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

type gatePassRepository interface {
	GetDetail(ctx context.Context, id string) (*models.PassDetail, error)
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	Transition(ctx context.Context, id string, from, to models.PassStatus) error
	Expire(ctx context.Context, id string) error
}

type scanRecorder interface {
	Create(ctx context.Context, event *models.ScanEvent) error
	ListByPass(ctx context.Context, passID string, limit int) ([]models.ScanEvent, error)
}

type registeredImageOpener interface {
	Open(filename string) (*os.File, error)
}

// GateConfig tunes the checkpoint verification flow.
type GateConfig struct {
	GracePeriod    time.Duration
	SingleUse      bool
	FaceEnabled    bool
	MatchThreshold float64
}

// GateService verifies presented QR tokens at checkpoint devices. Every
// decision is appended to the scan event trail; the signature check
// runs before any database read so forged tokens learn nothing.
type GateService struct {
	passes     gatePassRepository
	scans      scanRecorder
	identities passIdentityReader
	tokens     *TokenService
	matcher    face.Matcher
	images     registeredImageOpener
	metrics    *MetricsService
	logger     *zap.Logger
	config     GateConfig
}

// NewGateService constructs a GateService instance.
func NewGateService(passes gatePassRepository, scans scanRecorder, identities passIdentityReader, tokens *TokenService, matcher face.Matcher, images registeredImageOpener, metrics *MetricsService, logger *zap.Logger, config GateConfig) *GateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateService{
		passes:     passes,
		scans:      scans,
		identities: identities,
		tokens:     tokens,
		matcher:    matcher,
		images:     images,
		metrics:    metrics,
		logger:     logger,
		config:     config,
	}
}

// Verify checks a presented token end to end: signature, nonce
// freshness, live pass state, optional face match, then consumption.
// Single-use consumption is a conditional update, so two simultaneous
// scans of the same pass grant exactly once.
func (s *GateService) Verify(ctx context.Context, device *models.GateDevice, qrContent string, captured io.Reader) (*dto.VerifyResult, error) {
	claims, err := s.tokens.Parse(qrContent)
	if err != nil {
		s.observeScan(models.ScanResultDenied)
		return nil, err
	}

	detail, err := s.passes.GetDetail(ctx, claims.PassID)
	if err != nil {
		s.observeScan(models.ScanResultDenied)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnknownPass
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pass")
	}

	if denyErr := s.evaluate(ctx, detail, claims, captured); denyErr != nil {
		s.recordScan(ctx, device, detail, models.ScanResultDenied, denyErr)
		return nil, denyErr
	}

	if err := s.consume(ctx, detail); err != nil {
		s.recordScan(ctx, device, detail, models.ScanResultDenied, err)
		return nil, err
	}

	s.recordScan(ctx, device, detail, models.ScanResultGranted, nil)

	status := models.PassStatusActive
	if s.config.SingleUse {
		status = models.PassStatusUsed
	}
	return &dto.VerifyResult{
		PassID:     detail.ID,
		RegNo:      detail.RegNo,
		Name:       detail.Name,
		Department: detail.Department,
		ClassName:  detail.ClassName,
		PassStatus: string(status),
	}, nil
}

// History returns the scan trail for a pass.
func (s *GateService) History(ctx context.Context, passID string, limit int) ([]models.ScanEvent, error) {
	events, err := s.scans.ListByPass(ctx, passID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scan events")
	}
	return events, nil
}

func (s *GateService) evaluate(ctx context.Context, detail *models.PassDetail, claims *TokenClaims, captured io.Reader) error {
	// a rotated nonce invalidates older tokens even with a valid signature
	if detail.TokenNonce == nil || *detail.TokenNonce != claims.Nonce {
		return appErrors.ErrBadSignature
	}

	now := time.Now()
	switch detail.EffectiveStatus(now, s.config.GracePeriod) {
	case models.PassStatusActive:
	case models.PassStatusApproved:
		return appErrors.ErrNotYetActive
	case models.PassStatusPending:
		return appErrors.Clone(appErrors.ErrNotYetActive, "pass has not been approved yet")
	case models.PassStatusExpired:
		if !detail.Status.Terminal() {
			if err := s.passes.Expire(ctx, detail.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("expiry at gate failed", zap.String("pass_id", detail.ID), zap.Error(err))
			}
		}
		return appErrors.ErrPassExpired
	case models.PassStatusUsed:
		return appErrors.ErrAlreadyUsed
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "pass is not valid")
	}

	if s.config.FaceEnabled && s.matcher != nil && captured != nil {
		if err := s.matchFace(ctx, detail, captured); err != nil {
			return err
		}
	}
	return nil
}

func (s *GateService) matchFace(ctx context.Context, detail *models.PassDetail, captured io.Reader) error {
	registered, err := s.images.Open(detail.ProfileImage)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to open registered photo")
	}
	defer registered.Close() //nolint:errcheck

	distance, err := s.matcher.Match(ctx, captured, registered)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "face comparison failed")
	}
	if distance > s.config.MatchThreshold {
		return appErrors.ErrFaceMismatch
	}
	return nil
}

// consume applies the post-grant state change: single-use passes flip
// to USED, multi-use passes activate on first scan.
func (s *GateService) consume(ctx context.Context, detail *models.PassDetail) error {
	now := time.Now().UTC()
	if s.config.SingleUse {
		if err := s.passes.MarkUsed(ctx, detail.ID, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.ErrAlreadyUsed
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to consume pass")
		}
		return nil
	}
	if detail.Status == models.PassStatusApproved {
		if err := s.passes.Transition(ctx, detail.ID, models.PassStatusApproved, models.PassStatusActive); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate pass")
		}
	}
	return nil
}

func (s *GateService) recordScan(ctx context.Context, device *models.GateDevice, detail *models.PassDetail, result models.ScanResult, cause error) {
	s.observeScan(result)

	event := &models.ScanEvent{
		PassID: detail.ID,
		RegNo:  detail.RegNo,
		Result: result,
	}
	if device != nil {
		event.GateID = device.ID
	}
	if cause != nil {
		event.Detail = appErrors.FromError(cause).Code
	}
	if err := s.scans.Create(ctx, event); err != nil {
		s.logger.Warn("failed to record scan event", zap.String("pass_id", detail.ID), zap.Error(err))
	}

	if err := s.identities.CreateAuditLog(ctx, &models.AuditLog{
		RegNo:      &detail.RegNo,
		Action:     models.AuditActionGateScan,
		Resource:   "pass",
		ResourceID: &detail.ID,
		NewValues:  []byte(`{"result":"` + string(result) + `"}`),
	}); err != nil {
		s.logger.Warn("failed to record scan audit log", zap.Error(err))
	}
}

func (s *GateService) observeScan(result models.ScanResult) {
	if s.metrics != nil {
		s.metrics.ObserveScan(result)
	}
}
