package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	"github.com/noah-isme/campus-gatepass-api/internal/repository"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/storage"
)

type mockPassRepo struct {
	passes     map[string]*models.Pass
	holder     *models.Identity
	expired    []string
	rotatedTo  string
	sweepCount int64
	createErr  error
}

func (m *mockPassRepo) Create(ctx context.Context, pass *models.Pass) error {
	if m.createErr != nil {
		return m.createErr
	}
	if pass.ID == "" {
		pass.ID = uuid.NewString()
	}
	if pass.Status == "" {
		pass.Status = models.PassStatusPending
	}
	if m.passes == nil {
		m.passes = make(map[string]*models.Pass)
	}
	copied := *pass
	m.passes[pass.ID] = &copied
	return nil
}

func (m *mockPassRepo) GetByID(ctx context.Context, id string) (*models.Pass, error) {
	pass, ok := m.passes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *pass
	return &copied, nil
}

func (m *mockPassRepo) GetDetail(ctx context.Context, id string) (*models.PassDetail, error) {
	pass, ok := m.passes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.detail(pass), nil
}

func (m *mockPassRepo) detail(pass *models.Pass) *models.PassDetail {
	detail := &models.PassDetail{Pass: *pass}
	if m.holder != nil {
		detail.Name = m.holder.Email
		detail.Department = m.holder.Department
		detail.ClassName = m.holder.ClassName
		detail.ProfileImage = m.holder.ImageFilename
	}
	return detail
}

func (m *mockPassRepo) CountNonTerminal(ctx context.Context, regNo string) (int, error) {
	count := 0
	for _, pass := range m.passes {
		if pass.RegNo == regNo && !pass.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func (m *mockPassRepo) ListByRegNo(ctx context.Context, regNo string, limit int) ([]models.PassDetail, error) {
	var details []models.PassDetail
	for _, pass := range m.passes {
		if pass.RegNo == regNo {
			details = append(details, *m.detail(pass))
		}
	}
	return details, nil
}

func (m *mockPassRepo) Decide(ctx context.Context, params repository.DecidePassParams) error {
	pass, ok := m.passes[params.ID]
	if !ok || pass.Status != models.PassStatusPending {
		return sql.ErrNoRows
	}
	pass.Status = params.Status
	pass.DecidedBy = &params.DecidedBy
	pass.DecidedAt = &params.DecidedAt
	pass.DecisionNote = params.Note
	pass.TokenNonce = params.TokenNonce
	pass.TokenMintedAt = params.TokenMintedAt
	return nil
}

func (m *mockPassRepo) Cancel(ctx context.Context, id string, at time.Time) error {
	pass, ok := m.passes[id]
	if !ok || (pass.Status != models.PassStatusPending && pass.Status != models.PassStatusApproved) {
		return sql.ErrNoRows
	}
	pass.Status = models.PassStatusCancelled
	return nil
}

func (m *mockPassRepo) Expire(ctx context.Context, id string) error {
	pass, ok := m.passes[id]
	if !ok || pass.Status.Terminal() {
		return sql.ErrNoRows
	}
	pass.Status = models.PassStatusExpired
	m.expired = append(m.expired, id)
	return nil
}

func (m *mockPassRepo) ExpireLapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.sweepCount, nil
}

func (m *mockPassRepo) RotateNonce(ctx context.Context, id, nonce string, mintedAt time.Time) error {
	pass, ok := m.passes[id]
	if !ok || (pass.Status != models.PassStatusApproved && pass.Status != models.PassStatusActive) {
		return sql.ErrNoRows
	}
	pass.TokenNonce = &nonce
	pass.TokenMintedAt = &mintedAt
	m.rotatedTo = nonce
	return nil
}

type mockCache struct {
	entries map[string][]byte
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	m.deleted = append(m.deleted, key)
	return nil
}

type mockProofStore struct {
	saved map[string][]byte
}

func (m *mockProofStore) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockProofStore) Exists(filename string) bool {
	_, ok := m.saved[filename]
	return ok
}

func (m *mockProofStore) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func activeHolder() *models.Identity {
	return &models.Identity{
		RegNo:         "21CS042",
		Email:         "student@campus.edu",
		Department:    "CSE",
		ClassName:     "III-B",
		ImageFilename: "21CS042.jpg",
		Role:          models.RoleStudent,
		ValidUntil:    time.Now().Add(365 * 24 * time.Hour),
	}
}

func newPassFixture(t *testing.T, cfg PassServiceConfig) (*PassService, *mockPassRepo, *mockIdentityRepo, *mockCache, *mockProofStore) {
	t.Helper()
	holder := activeHolder()
	repo := &mockPassRepo{holder: holder}
	identities := &mockIdentityRepo{identities: map[string]*models.Identity{holder.RegNo: holder}}
	cache := &mockCache{}
	proofs := &mockProofStore{}
	tokens := NewTokenService("token-secret", cfg.GracePeriod)
	signer := storage.NewSignedURLSigner("proof-secret", 10*time.Minute)
	svc := NewPassService(repo, identities, cache, proofs, tokens, signer, validator.New(), zap.NewNop(), cfg, nil)
	return svc, repo, identities, cache, proofs
}

func defaultPassConfig() PassServiceConfig {
	return PassServiceConfig{
		GracePeriod:        30 * time.Minute,
		SingleUse:          true,
		MyPassesCacheTTL:   time.Minute,
		OperationalDaySpan: 48 * time.Hour,
		MaxUploadBytes:     8 * 1024 * 1024,
		AllowedProofMIMEs:  []string{"image/jpeg", "image/png", "application/pdf"},
	}
}

func submitForm(leave, ret time.Time) dto.SubmitPassRequest {
	return dto.SubmitPassRequest{
		RegNo:      "21CS042",
		Purpose:    "medical appointment",
		LeaveTime:  leave.Format(time.RFC3339),
		ReturnTime: ret.Format(time.RFC3339),
	}
}

func pdfProof() *ProofUpload {
	return &ProofUpload{Filename: "letter.pdf", MIME: "application/pdf", Data: []byte("%PDF-1.4 fake")}
}

func TestPassSubmitSuccess(t *testing.T) {
	svc, repo, identities, cache, proofs := newPassFixture(t, defaultPassConfig())

	proof := pdfProof()
	pass, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(4*time.Hour)), proof)
	require.NoError(t, err)
	assert.Equal(t, models.PassStatusPending, pass.Status)

	sum := sha256.Sum256(proof.Data)
	wantFilename := hex.EncodeToString(sum[:]) + ".pdf"
	assert.Equal(t, wantFilename, pass.ProofFilename)
	assert.Contains(t, proofs.saved, wantFilename)

	assert.Contains(t, cache.deleted, myPassesKey("21CS042"))
	require.Len(t, identities.auditLogs, 1)
	assert.Equal(t, models.AuditActionPassSubmit, identities.auditLogs[0].Action)
	assert.Len(t, repo.passes, 1)
}

func TestPassSubmitClockOnlyTimes(t *testing.T) {
	svc, _, _, _, _ := newPassFixture(t, defaultPassConfig())

	req := dto.SubmitPassRequest{
		RegNo:      "21CS042",
		Purpose:    "library visit",
		LeaveTime:  "10:30",
		ReturnTime: "16:00",
	}
	pass, err := svc.Submit(context.Background(), req, pdfProof())
	require.NoError(t, err)
	assert.True(t, pass.ReturnTime.After(pass.LeaveTime))
	assert.Equal(t, 10, pass.LeaveTime.Hour())
	assert.Equal(t, 16, pass.ReturnTime.Hour())
}

func TestPassSubmitRejectsInvalidWindow(t *testing.T) {
	svc, _, _, _, _ := newPassFixture(t, defaultPassConfig())

	_, err := svc.Submit(context.Background(), submitForm(time.Now().Add(4*time.Hour), time.Now().Add(time.Hour)), nil)
	require.ErrorIs(t, err, appErrors.ErrWindowInvalid)

	// window longer than the operational span
	_, err = svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(80*time.Hour)), nil)
	require.ErrorIs(t, err, appErrors.ErrWindowInvalid)
}

func TestPassSubmitRejectsInvertedClockWindow(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())

	// a return clock earlier than the leave clock never rolls overnight
	req := dto.SubmitPassRequest{
		RegNo:      "21CS042",
		Purpose:    "errand",
		LeaveTime:  "10:00",
		ReturnTime: "09:00",
	}
	_, err := svc.Submit(context.Background(), req, pdfProof())
	require.ErrorIs(t, err, appErrors.ErrWindowInvalid)
	assert.Contains(t, appErrors.FromError(err).Message, "return_time must be after leave_time")

	req.ReturnTime = "10:00"
	_, err = svc.Submit(context.Background(), req, pdfProof())
	require.ErrorIs(t, err, appErrors.ErrWindowInvalid)
	assert.Empty(t, repo.passes)
}

func TestPassSubmitRejectsDuplicateActive(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())

	_, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), pdfProof())
	require.NoError(t, err)
	require.Len(t, repo.passes, 1)

	_, err = svc.Submit(context.Background(), submitForm(time.Now().Add(2*time.Hour), time.Now().Add(5*time.Hour)), pdfProof())
	require.ErrorIs(t, err, appErrors.ErrDuplicateActiveRequest)
}

func TestPassSubmitRequiresProof(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())

	_, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), nil)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.passes)
}

func TestPassSubmitRejectsBadProofType(t *testing.T) {
	svc, _, _, _, _ := newPassFixture(t, defaultPassConfig())

	proof := &ProofUpload{Filename: "malware.exe", MIME: "application/octet-stream", Data: []byte{0x4d, 0x5a}}
	_, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), proof)
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPassSubmitAutoApprove(t *testing.T) {
	cfg := defaultPassConfig()
	cfg.AutoApprove = true
	svc, _, _, _, _ := newPassFixture(t, cfg)

	pass, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), pdfProof())
	require.NoError(t, err)
	assert.Equal(t, models.PassStatusApproved, pass.Status)
	require.NotNil(t, pass.TokenNonce)
	require.NotNil(t, pass.DecidedBy)
	assert.Equal(t, "system", *pass.DecidedBy)
}

func TestPassReviewApproveAndConflict(t *testing.T) {
	svc, repo, _, cache, _ := newPassFixture(t, defaultPassConfig())

	submitted, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), pdfProof())
	require.NoError(t, err)

	approved, err := svc.Review(context.Background(), submitted.ID, dto.ReviewPassRequest{Status: models.PassStatusApproved, Note: "verified"}, "ADM001")
	require.NoError(t, err)
	assert.Equal(t, models.PassStatusApproved, approved.Status)
	require.NotNil(t, approved.TokenNonce)
	assert.NotEmpty(t, *approved.TokenNonce)
	assert.Contains(t, cache.deleted, myPassesKey("21CS042"))

	// a second decision on the same pass is refused
	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewPassRequest{Status: models.PassStatusApproved}, "ADM002")
	require.ErrorIs(t, err, appErrors.ErrAlreadyApproved)

	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewPassRequest{Status: models.PassStatusRejected}, "ADM002")
	require.ErrorIs(t, err, appErrors.ErrAlreadyApproved)

	assert.Equal(t, models.PassStatusApproved, repo.passes[submitted.ID].Status)
}

func TestPassReviewRejectsBadDecision(t *testing.T) {
	svc, _, _, _, _ := newPassFixture(t, defaultPassConfig())
	_, err := svc.Review(context.Background(), "pass-1", dto.ReviewPassRequest{Status: models.PassStatusUsed}, "ADM001")
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPassReviewLapsedPendingExpires(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())

	pass := &models.Pass{
		RegNo:      "21CS042",
		Purpose:    "stale request",
		LeaveTime:  time.Now().Add(-6 * time.Hour),
		ReturnTime: time.Now().Add(-3 * time.Hour),
		Status:     models.PassStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), pass))

	_, err := svc.Review(context.Background(), pass.ID, dto.ReviewPassRequest{Status: models.PassStatusApproved}, "ADM001")
	require.ErrorIs(t, err, appErrors.ErrPassExpired)
	assert.Equal(t, models.PassStatusExpired, repo.passes[pass.ID].Status)
}

func TestPassCancel(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())

	submitted, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), pdfProof())
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), submitted.ID, "99XX000")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Cancel(context.Background(), submitted.ID, "21CS042"))
	assert.Equal(t, models.PassStatusCancelled, repo.passes[submitted.ID].Status)

	// cancelling twice is an invalid transition
	err = svc.Cancel(context.Background(), submitted.ID, "21CS042")
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestPassCancelRefusedOnceActive(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())

	// approved row whose leave window already opened
	pass := &models.Pass{
		RegNo:      "21CS042",
		Purpose:    "hostel visit",
		LeaveTime:  time.Now().Add(-time.Hour),
		ReturnTime: time.Now().Add(2 * time.Hour),
		Status:     models.PassStatusApproved,
	}
	require.NoError(t, repo.Create(context.Background(), pass))

	err := svc.Cancel(context.Background(), pass.ID, "21CS042")
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, models.PassStatusApproved, repo.passes[pass.ID].Status)
}

func TestPassMyPassesLazyExpiryAndCache(t *testing.T) {
	svc, repo, _, cache, _ := newPassFixture(t, defaultPassConfig())

	lapsed := &models.Pass{
		RegNo:      "21CS042",
		Purpose:    "old errand",
		LeaveTime:  time.Now().Add(-6 * time.Hour),
		ReturnTime: time.Now().Add(-3 * time.Hour),
		Status:     models.PassStatusApproved,
	}
	require.NoError(t, repo.Create(context.Background(), lapsed))

	items, err := svc.MyPasses(context.Background(), "21CS042")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, string(models.PassStatusExpired), items[0].Status)
	assert.Contains(t, repo.expired, lapsed.ID)
	assert.Contains(t, cache.entries, myPassesKey("21CS042"))

	// second read is served from cache
	repo.passes = nil
	cached, err := svc.MyPasses(context.Background(), "21CS042")
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, items[0].PassID, cached[0].PassID)
}

func TestPassQRTokenLifecycle(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())
	holderClaims := &models.JWTClaims{RegNo: "21CS042", Role: models.RoleStudent}

	submitted, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), pdfProof())
	require.NoError(t, err)

	// pending passes have no token
	_, _, err = svc.QRToken(context.Background(), submitted.ID, holderClaims)
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = svc.Review(context.Background(), submitted.ID, dto.ReviewPassRequest{Status: models.PassStatusApproved}, "ADM001")
	require.NoError(t, err)

	token, expiresAt, err := svc.QRToken(context.Background(), submitted.ID, holderClaims)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	// another student cannot fetch the token
	_, _, err = svc.QRToken(context.Background(), submitted.ID, &models.JWTClaims{RegNo: "99XX000", Role: models.RoleStudent})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	// reminting rotates the nonce so the old token is stale
	fresh, err := svc.RemintToken(context.Background(), submitted.ID)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
	assert.Equal(t, repo.rotatedTo, *repo.passes[submitted.ID].TokenNonce)
}

func TestPassProofURLRoundTrip(t *testing.T) {
	svc, _, _, _, _ := newPassFixture(t, defaultPassConfig())
	holderClaims := &models.JWTClaims{RegNo: "21CS042", Role: models.RoleStudent}

	proof := pdfProof()
	submitted, err := svc.Submit(context.Background(), submitForm(time.Now().Add(time.Hour), time.Now().Add(3*time.Hour)), proof)
	require.NoError(t, err)

	token, expiresAt, err := svc.ProofURL(context.Background(), submitted.ID, holderClaims)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	_, _, err = svc.ProofURL(context.Background(), submitted.ID, &models.JWTClaims{RegNo: "99XX000", Role: models.RoleStudent})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestPassSweepExpired(t *testing.T) {
	svc, repo, _, _, _ := newPassFixture(t, defaultPassConfig())
	repo.sweepCount = 7

	expired, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), expired)
}
