package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	"github.com/noah-isme/campus-gatepass-api/internal/repository"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/export"
	"github.com/noah-isme/campus-gatepass-api/pkg/storage"
)

type passRepository interface {
	Create(ctx context.Context, pass *models.Pass) error
	GetByID(ctx context.Context, id string) (*models.Pass, error)
	GetDetail(ctx context.Context, id string) (*models.PassDetail, error)
	CountNonTerminal(ctx context.Context, regNo string) (int, error)
	ListByRegNo(ctx context.Context, regNo string, limit int) ([]models.PassDetail, error)
	Decide(ctx context.Context, params repository.DecidePassParams) error
	Cancel(ctx context.Context, id string, at time.Time) error
	Expire(ctx context.Context, id string) error
	ExpireLapsed(ctx context.Context, cutoff time.Time) (int64, error)
	RotateNonce(ctx context.Context, id, nonce string, mintedAt time.Time) error
}

type passIdentityReader interface {
	FindByRegNo(ctx context.Context, regNo string) (*models.Identity, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type passCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type proofStore interface {
	Save(filename string, data []byte) (string, error)
	Exists(filename string) bool
	Open(filename string) (*os.File, error)
}

// ProofUpload is an in-memory proof document taken off the wire.
type ProofUpload struct {
	Filename string
	MIME     string
	Data     []byte
}

// PassServiceConfig tunes the lifecycle engine.
type PassServiceConfig struct {
	GracePeriod        time.Duration
	SingleUse          bool
	AutoApprove        bool
	MyPassesCacheTTL   time.Duration
	OperationalDaySpan time.Duration
	MaxUploadBytes     int64
	AllowedProofMIMEs  []string
}

// PassService owns the leave-request lifecycle from submission through
// approval, token issuance and expiry.
type PassService struct {
	repo       passRepository
	identities passIdentityReader
	cache      passCache
	proofs     proofStore
	tokens     *TokenService
	signer     *storage.SignedURLSigner
	validator  *validator.Validate
	logger     *zap.Logger
	config     PassServiceConfig
	isDup      uniqueViolationChecker
}

// NewPassService constructs a PassService instance.
func NewPassService(repo passRepository, identities passIdentityReader, cache passCache, proofs proofStore, tokens *TokenService, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, config PassServiceConfig, isDup uniqueViolationChecker) *PassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if isDup == nil {
		isDup = func(error) bool { return false }
	}
	if config.MyPassesCacheTTL <= 0 {
		config.MyPassesCacheTTL = time.Minute
	}
	if config.OperationalDaySpan <= 0 {
		config.OperationalDaySpan = 48 * time.Hour
	}
	return &PassService{
		repo:       repo,
		identities: identities,
		cache:      cache,
		proofs:     proofs,
		tokens:     tokens,
		signer:     signer,
		validator:  validate,
		logger:     logger,
		config:     config,
		isDup:      isDup,
	}
}

// Submit creates a new leave request in PENDING state (or APPROVED when
// auto-approval is on). The proof document is stored content-addressed,
// so re-submitting the same file never duplicates storage.
func (s *PassService) Submit(ctx context.Context, req dto.SubmitPassRequest, proof *ProofUpload) (*models.Pass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pass request payload")
	}

	identity, err := s.identities.FindByRegNo(ctx, req.RegNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "identity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch identity")
	}
	now := time.Now()
	if identity.Expired(now.UTC()) {
		return nil, appErrors.ErrAccountExpired
	}

	leaveTime, returnTime, err := s.parseWindow(req.LeaveTime, req.ReturnTime, now)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountNonTerminal(ctx, req.RegNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active requests")
	}
	if count > 0 {
		return nil, appErrors.ErrDuplicateActiveRequest
	}

	proofFilename, proofMime, err := s.storeProof(proof)
	if err != nil {
		return nil, err
	}

	pass := &models.Pass{
		RegNo:         req.RegNo,
		Purpose:       strings.TrimSpace(req.Purpose),
		LeaveTime:     leaveTime,
		ReturnTime:    returnTime,
		ProofFilename: proofFilename,
		ProofMime:     proofMime,
	}
	if err := s.repo.Create(ctx, pass); err != nil {
		if s.isDup(err) {
			return nil, appErrors.ErrDuplicateActiveRequest
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create pass request")
	}

	if s.config.AutoApprove {
		if approved, err := s.approve(ctx, pass.ID, "system", nil); err != nil {
			s.logger.Warn("auto-approval failed", zap.String("pass_id", pass.ID), zap.Error(err))
		} else {
			pass = approved
		}
	}

	s.invalidateMyPasses(ctx, req.RegNo)
	s.audit(ctx, &req.RegNo, models.AuditActionPassSubmit, pass.ID, []byte(fmt.Sprintf(`{"status":%q}`, pass.Status)))

	return pass, nil
}

// MyPasses lists the identity's passes for the client, applying lazy
// expiry so a lapsed pass is never displayed live. Results are cached
// briefly; every lifecycle write invalidates the entry.
func (s *PassService) MyPasses(ctx context.Context, regNo string) ([]dto.PassItem, error) {
	cacheKey := myPassesKey(regNo)
	if s.cache != nil {
		var cached []dto.PassItem
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("pass list cache read failed", zap.Error(err))
		}
	}

	details, err := s.repo.ListByRegNo(ctx, regNo, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list passes")
	}

	now := time.Now()
	items := make([]dto.PassItem, 0, len(details))
	for i := range details {
		detail := &details[i]
		effective := detail.EffectiveStatus(now, s.config.GracePeriod)
		if effective == models.PassStatusExpired && !detail.Status.Terminal() {
			if err := s.repo.Expire(ctx, detail.ID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("lazy expiry failed", zap.String("pass_id", detail.ID), zap.Error(err))
			}
		}
		items = append(items, dto.PassItem{
			PassID:       detail.ID,
			Name:         detail.Name,
			RegNo:        detail.RegNo,
			Department:   detail.Department,
			ClassName:    detail.ClassName,
			Purpose:      detail.Purpose,
			LeaveTime:    detail.LeaveTime,
			ReturnTime:   detail.ReturnTime,
			Status:       string(effective),
			ProfileImage: detail.ProfileImage,
			CreatedAt:    detail.CreatedAt,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, items, s.config.MyPassesCacheTTL); err != nil {
			s.logger.Warn("pass list cache write failed", zap.Error(err))
		}
	}
	return items, nil
}

// Get returns one pass joined with the holder profile.
func (s *PassService) Get(ctx context.Context, id string) (*models.PassDetail, error) {
	detail, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pass not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pass")
	}
	return detail, nil
}

// Review applies an authority's APPROVED or REJECTED decision to a
// pending request. Approval mints the token nonce atomically with the
// status flip, so a pass is never approved without a mintable token.
func (s *PassService) Review(ctx context.Context, id string, req dto.ReviewPassRequest, decidedBy string) (*models.Pass, error) {
	if req.Status != models.PassStatusApproved && req.Status != models.PassStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision status must be APPROVED or REJECTED")
	}

	pass, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pass not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pass")
	}

	now := time.Now()
	if !pass.Status.Terminal() && pass.LapsedBy(now, s.config.GracePeriod) {
		if err := s.repo.Expire(ctx, id); err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("expiry of lapsed pass failed", zap.String("pass_id", id), zap.Error(err))
		}
		return nil, appErrors.ErrPassExpired
	}
	if pass.Status != models.PassStatusPending {
		if pass.Status == models.PassStatusApproved {
			return nil, appErrors.ErrAlreadyApproved
		}
		return nil, appErrors.ErrInvalidTransition
	}

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}

	var updated *models.Pass
	if req.Status == models.PassStatusApproved {
		updated, err = s.approve(ctx, id, decidedBy, note)
	} else {
		err = s.repo.Decide(ctx, repository.DecidePassParams{
			ID:        id,
			Status:    models.PassStatusRejected,
			DecidedBy: decidedBy,
			DecidedAt: now.UTC(),
			Note:      note,
		})
		if err == nil {
			updated, err = s.repo.GetByID(ctx, id)
		}
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidTransition
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply decision")
	}

	s.invalidateMyPasses(ctx, pass.RegNo)
	s.audit(ctx, &decidedBy, models.AuditActionPassReview, id, []byte(fmt.Sprintf(`{"decision":%q}`, req.Status)))

	return updated, nil
}

// Cancel lets the holder withdraw a request before it becomes active.
func (s *PassService) Cancel(ctx context.Context, id, regNo string) error {
	pass, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "pass not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pass")
	}
	if pass.RegNo != regNo {
		return appErrors.Clone(appErrors.ErrForbidden, "pass belongs to another identity")
	}

	// an APPROVED row whose leave window has opened is effectively ACTIVE
	// and can no longer be withdrawn
	now := time.Now()
	switch pass.EffectiveStatus(now, s.config.GracePeriod) {
	case models.PassStatusPending, models.PassStatusApproved:
	default:
		return appErrors.Clone(appErrors.ErrInvalidTransition, "pass can no longer be cancelled")
	}

	if err := s.repo.Cancel(ctx, id, now.UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrInvalidTransition
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel pass")
	}

	s.invalidateMyPasses(ctx, regNo)
	s.audit(ctx, &regNo, models.AuditActionPassCancel, id, []byte(`{"status":"CANCELLED"}`))
	return nil
}

// QRToken mints the signed token for an approved pass. Only the holder
// or an admin may fetch it.
func (s *PassService) QRToken(ctx context.Context, id string, requester *models.JWTClaims) (string, time.Time, error) {
	pass, err := s.authorizedPass(ctx, id, requester)
	if err != nil {
		return "", time.Time{}, err
	}

	switch pass.EffectiveStatus(time.Now(), s.config.GracePeriod) {
	case models.PassStatusApproved, models.PassStatusActive:
	case models.PassStatusPending:
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInvalidTransition, "pass has not been approved yet")
	case models.PassStatusExpired:
		return "", time.Time{}, appErrors.ErrPassExpired
	default:
		return "", time.Time{}, appErrors.ErrInvalidTransition
	}

	identity, err := s.identities.FindByRegNo(ctx, pass.RegNo)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch identity")
	}

	return s.tokens.Mint(pass, identity.ValidUntil)
}

// QRPNG renders the pass token as a PNG image.
func (s *PassService) QRPNG(ctx context.Context, id string, requester *models.JWTClaims, size int) ([]byte, error) {
	token, _, err := s.QRToken(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	return s.tokens.QRPNG(token, size)
}

// PassPDF renders a printable pass document with the embedded QR code.
func (s *PassService) PassPDF(ctx context.Context, id string, requester *models.JWTClaims) ([]byte, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requester != nil && requester.Role != models.RoleAdmin && requester.RegNo != detail.RegNo {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "pass belongs to another identity")
	}

	token, _, err := s.QRToken(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	qrPNG, err := s.tokens.QRPNG(token, 256)
	if err != nil {
		return nil, err
	}
	return export.RenderPassPDF(export.PassDocument{
		PassID:     detail.ID,
		Name:       detail.Name,
		RegNo:      detail.RegNo,
		Department: detail.Department,
		ClassName:  detail.ClassName,
		Purpose:    detail.Purpose,
		LeaveTime:  detail.LeaveTime,
		ReturnTime: detail.ReturnTime,
		Status:     string(detail.EffectiveStatus(time.Now(), s.config.GracePeriod)),
	}, qrPNG)
}

// RemintToken rotates the token nonce, invalidating every previously
// issued token for the pass, and returns a fresh one.
func (s *PassService) RemintToken(ctx context.Context, id string) (string, error) {
	nonce, err := s.tokens.NewNonce()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint nonce")
	}
	if err := s.repo.RotateNonce(ctx, id, nonce, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrInvalidTransition, "pass is not in a mintable state")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate token nonce")
	}

	pass, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload pass")
	}
	identity, err := s.identities.FindByRegNo(ctx, pass.RegNo)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch identity")
	}
	token, _, err := s.tokens.Mint(pass, identity.ValidUntil)
	return token, err
}

// ProofURL produces a short-lived signed download token for the proof
// document, so the file itself is never served from a guessable path.
func (s *PassService) ProofURL(ctx context.Context, id string, requester *models.JWTClaims) (string, time.Time, error) {
	pass, err := s.authorizedPass(ctx, id, requester)
	if err != nil {
		return "", time.Time{}, err
	}
	if pass.ProofFilename == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "pass has no proof document")
	}
	return s.signer.Generate(pass.ID, pass.ProofFilename)
}

// OpenProof validates a signed download token and opens the underlying
// file. The caller owns closing the handle.
func (s *PassService) OpenProof(ctx context.Context, token string) (*os.File, string, error) {
	passID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	pass, err := s.repo.GetByID(ctx, passID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "pass not found")
	}
	if pass.ProofFilename != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match the pass")
	}

	file, err := s.proofs.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to open proof document")
	}
	return file, pass.ProofMime, nil
}

// SweepExpired bulk-expires every pass whose window plus grace has
// lapsed. Run periodically by the background job queue.
func (s *PassService) SweepExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.config.GracePeriod)
	expired, err := s.repo.ExpireLapsed(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired lapsed passes", zap.Int64("count", expired))
	}
	return expired, nil
}

func (s *PassService) approve(ctx context.Context, id, decidedBy string, note *string) (*models.Pass, error) {
	nonce, err := s.tokens.NewNonce()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint nonce")
	}
	now := time.Now().UTC()
	err = s.repo.Decide(ctx, repository.DecidePassParams{
		ID:            id,
		Status:        models.PassStatusApproved,
		DecidedBy:     decidedBy,
		DecidedAt:     now,
		Note:          note,
		TokenNonce:    &nonce,
		TokenMintedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *PassService) authorizedPass(ctx context.Context, id string, requester *models.JWTClaims) (*models.Pass, error) {
	pass, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pass not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch pass")
	}
	if requester != nil && requester.Role != models.RoleAdmin && requester.RegNo != pass.RegNo {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "pass belongs to another identity")
	}
	return pass, nil
}

// storeProof validates and persists the proof document keyed by its
// content hash.
func (s *PassService) storeProof(proof *ProofUpload) (filename, mimeType string, err error) {
	if proof == nil || len(proof.Data) == 0 {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "proof document is required")
	}
	if s.config.MaxUploadBytes > 0 && int64(len(proof.Data)) > s.config.MaxUploadBytes {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "proof document exceeds the upload size limit")
	}

	mimeType = proof.MIME
	if mimeType == "" {
		mimeType = http.DetectContentType(proof.Data)
	}
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !s.proofMimeAllowed(mimeType) {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "proof document type is not accepted")
	}

	sum := sha256.Sum256(proof.Data)
	filename = hex.EncodeToString(sum[:]) + proofExtension(mimeType)
	if s.proofs.Exists(filename) {
		return filename, mimeType, nil
	}
	if _, err := s.proofs.Save(filename, proof.Data); err != nil {
		s.logger.Warn("proof write failed, retrying once", zap.String("filename", filename), zap.Error(err))
		if _, err = s.proofs.Save(filename, proof.Data); err != nil {
			return "", "", appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store proof document")
		}
	}
	return filename, mimeType, nil
}

func (s *PassService) proofMimeAllowed(mimeType string) bool {
	if len(s.config.AllowedProofMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedProofMIMEs {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}

func proofExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// parseWindow resolves the submitted leave and return times. The mobile
// client may send bare clock times; the leave clock anchors to today and
// rolls to the next day when already past, and a clock-only return always
// shares the leave date. A return clock at or before the leave clock is an
// inverted window, never an overnight one.
func (s *PassService) parseWindow(rawLeave, rawReturn string, now time.Time) (time.Time, time.Time, error) {
	leaveTime, err := parseWindowTime(rawLeave, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	returnTime, err := parseWindowTime(rawReturn, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if isClockOnly(rawReturn) {
		returnTime = time.Date(leaveTime.Year(), leaveTime.Month(), leaveTime.Day(),
			returnTime.Hour(), returnTime.Minute(), returnTime.Second(), 0, leaveTime.Location())
	}
	if !returnTime.After(leaveTime) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrWindowInvalid, "return_time must be after leave_time")
	}
	if returnTime.Sub(leaveTime) > s.config.OperationalDaySpan {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrWindowInvalid, "pass window exceeds the allowed span")
	}
	if leaveTime.Before(now.Add(-s.config.GracePeriod)) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrWindowInvalid, "leave_time is in the past")
	}
	return leaveTime, returnTime, nil
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04 PM", "03:04 PM"}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

func parseWindowTime(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation(layout, raw, now.Location())
		if err != nil {
			continue
		}
		anchored := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
		if anchored.Before(now.Add(-time.Minute)) {
			anchored = anchored.Add(24 * time.Hour)
		}
		return anchored, nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unrecognized time format %q", raw))
}

func isClockOnly(raw string) bool {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

func (s *PassService) invalidateMyPasses(ctx context.Context, regNo string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, myPassesKey(regNo)); err != nil {
		s.logger.Warn("pass list cache invalidation failed", zap.String("reg_no", regNo), zap.Error(err))
	}
}

func (s *PassService) audit(ctx context.Context, regNo *string, action, resourceID string, values []byte) {
	if err := s.identities.CreateAuditLog(ctx, &models.AuditLog{
		RegNo:      regNo,
		Action:     action,
		Resource:   "pass",
		ResourceID: &resourceID,
		NewValues:  values,
	}); err != nil {
		s.logger.Warn("failed to record pass audit log", zap.String("action", action), zap.Error(err))
	}
}

func myPassesKey(regNo string) string {
	return "gatepass:my-passes:" + regNo
}
