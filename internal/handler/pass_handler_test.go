package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/middleware"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	"github.com/noah-isme/campus-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

type passServiceMock struct {
	submitResp  *models.Pass
	submitErr   error
	lastSubmit  dto.SubmitPassRequest
	lastProof   *service.ProofUpload
	listResp    []dto.PassItem
	listErr     error
	getResp     *models.PassDetail
	getErr      error
	reviewResp  *models.Pass
	reviewErr   error
	lastDecided string
	cancelErr   error
	tokenResp   string
	tokenExpiry time.Time
	tokenErr    error
	remintResp  string
	remintErr   error
}

func (m *passServiceMock) Submit(ctx context.Context, req dto.SubmitPassRequest, proof *service.ProofUpload) (*models.Pass, error) {
	m.lastSubmit = req
	m.lastProof = proof
	return m.submitResp, m.submitErr
}

func (m *passServiceMock) MyPasses(ctx context.Context, regNo string) ([]dto.PassItem, error) {
	return m.listResp, m.listErr
}

func (m *passServiceMock) Get(ctx context.Context, id string) (*models.PassDetail, error) {
	return m.getResp, m.getErr
}

func (m *passServiceMock) Review(ctx context.Context, id string, req dto.ReviewPassRequest, decidedBy string) (*models.Pass, error) {
	m.lastDecided = decidedBy
	return m.reviewResp, m.reviewErr
}

func (m *passServiceMock) Cancel(ctx context.Context, id, regNo string) error {
	return m.cancelErr
}

func (m *passServiceMock) QRToken(ctx context.Context, id string, requester *models.JWTClaims) (string, time.Time, error) {
	return m.tokenResp, m.tokenExpiry, m.tokenErr
}

func (m *passServiceMock) QRPNG(ctx context.Context, id string, requester *models.JWTClaims, size int) ([]byte, error) {
	return []byte("png"), nil
}

func (m *passServiceMock) PassPDF(ctx context.Context, id string, requester *models.JWTClaims) ([]byte, error) {
	return []byte("pdf"), nil
}

func (m *passServiceMock) RemintToken(ctx context.Context, id string) (string, error) {
	return m.remintResp, m.remintErr
}

func (m *passServiceMock) ProofURL(ctx context.Context, id string, requester *models.JWTClaims) (string, time.Time, error) {
	return m.tokenResp, m.tokenExpiry, m.tokenErr
}

func (m *passServiceMock) OpenProof(ctx context.Context, token string) (*os.File, string, error) {
	return nil, "", appErrors.ErrUnauthorized
}

type scanHistoryMock struct {
	events []models.ScanEvent
	err    error
}

func (m *scanHistoryMock) History(ctx context.Context, passID string, limit int) ([]models.ScanEvent, error) {
	return m.events, m.err
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func studentClaims(regNo string) *models.JWTClaims {
	return &models.JWTClaims{RegNo: regNo, Role: models.RoleStudent}
}

func TestPassHandlerRequestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &passServiceMock{
		submitResp: &models.Pass{ID: "pass-1", RegNo: "21CS042", Status: models.PassStatusPending},
	}
	handler := NewPassHandler(mockSvc, &scanHistoryMock{}, 1<<20)

	body, contentType := multipartBody(t, map[string]string{
		"reg_no":      "21CS042",
		"purpose":     "medical appointment",
		"leave_time":  "10:30",
		"return_time": "16:00",
	}, "proof", "letter.pdf", []byte("%PDF-1.4 proof"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/gate-pass/request", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims("21CS042"))

	handler.Request(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "21CS042", mockSvc.lastSubmit.RegNo)
	require.NotNil(t, mockSvc.lastProof)
	assert.Equal(t, []byte("%PDF-1.4 proof"), mockSvc.lastProof.Data)
}

func TestPassHandlerRequestForAnotherIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &passServiceMock{}
	handler := NewPassHandler(mockSvc, &scanHistoryMock{}, 1<<20)

	body, contentType := multipartBody(t, map[string]string{
		"reg_no":      "21CS099",
		"purpose":     "errand",
		"leave_time":  "10:30",
		"return_time": "16:00",
	}, "", "", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/gate-pass/request", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims("21CS042"))

	handler.Request(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, mockSvc.lastSubmit.RegNo)
}

func TestPassHandlerMyPassesForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPassHandler(&passServiceMock{}, &scanHistoryMock{}, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gate-pass/my-passes/21CS099", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "reg_no", Value: "21CS099"}}
	c.Set(middleware.ContextUserKey, studentClaims("21CS042"))

	handler.MyPasses(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPassHandlerGetHidesForeignPass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &passServiceMock{
		getResp: &models.PassDetail{Pass: models.Pass{ID: "pass-1", RegNo: "21CS099"}},
	}
	handler := NewPassHandler(mockSvc, &scanHistoryMock{}, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gate-pass/pass-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	c.Set(middleware.ContextUserKey, studentClaims("21CS042"))

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestPassHandlerReviewInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPassHandler(&passServiceMock{}, &scanHistoryMock{}, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/gate-pass/pass-1/review", bytes.NewBufferString(`{"status":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{RegNo: "warden-1", Role: models.RoleAdmin})

	handler.Review(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPassHandlerReviewRecordsDecider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &passServiceMock{
		reviewResp: &models.Pass{ID: "pass-1", Status: models.PassStatusApproved},
	}
	handler := NewPassHandler(mockSvc, &scanHistoryMock{}, 1<<20)

	payload, _ := json.Marshal(dto.ReviewPassRequest{Status: models.PassStatusApproved})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/gate-pass/pass-1/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{RegNo: "warden-1", Role: models.RoleAdmin})

	handler.Review(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "warden-1", mockSvc.lastDecided)
}

func TestPassHandlerCancelConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &passServiceMock{cancelErr: appErrors.ErrInvalidTransition}
	handler := NewPassHandler(mockSvc, &scanHistoryMock{}, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/gate-pass/pass-1/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	c.Set(middleware.ContextUserKey, studentClaims("21CS042"))

	handler.Cancel(c)
	require.Equal(t, appErrors.ErrInvalidTransition.Status, w.Code)
}

func TestPassHandlerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	mockSvc := &passServiceMock{tokenResp: "pass-1.nonce.123.sig", tokenExpiry: expiry}
	handler := NewPassHandler(mockSvc, &scanHistoryMock{}, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gate-pass/pass-1/token", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	c.Set(middleware.ContextUserKey, studentClaims("21CS042"))

	handler.Token(c)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pass-1.nonce.123.sig", resp["qr_content"])
}

func TestPassHandlerProofMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPassHandler(&passServiceMock{}, &scanHistoryMock{}, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gate-pass/proofs", nil)
	c.Request = req

	handler.Proof(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPassHandlerScans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := &scanHistoryMock{
		events: []models.ScanEvent{{ID: "scan-1", PassID: "pass-1", Result: models.ScanResultGranted}},
	}
	handler := NewPassHandler(&passServiceMock{}, history, 1<<20)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/gate-pass/pass-1/scans?limit=10", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{RegNo: "warden-1", Role: models.RoleAdmin})

	handler.Scans(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scan-1")
}
