package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	"github.com/noah-isme/campus-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/response"
)

type passService interface {
	Submit(ctx context.Context, req dto.SubmitPassRequest, proof *service.ProofUpload) (*models.Pass, error)
	MyPasses(ctx context.Context, regNo string) ([]dto.PassItem, error)
	Get(ctx context.Context, id string) (*models.PassDetail, error)
	Review(ctx context.Context, id string, req dto.ReviewPassRequest, decidedBy string) (*models.Pass, error)
	Cancel(ctx context.Context, id, regNo string) error
	QRToken(ctx context.Context, id string, requester *models.JWTClaims) (string, time.Time, error)
	QRPNG(ctx context.Context, id string, requester *models.JWTClaims, size int) ([]byte, error)
	PassPDF(ctx context.Context, id string, requester *models.JWTClaims) ([]byte, error)
	RemintToken(ctx context.Context, id string) (string, error)
	ProofURL(ctx context.Context, id string, requester *models.JWTClaims) (string, time.Time, error)
	OpenProof(ctx context.Context, token string) (*os.File, string, error)
}

type scanHistoryService interface {
	History(ctx context.Context, passID string, limit int) ([]models.ScanEvent, error)
}

// PassHandler wires HTTP endpoints to the pass lifecycle service.
type PassHandler struct {
	service  passService
	gates    scanHistoryService
	maxBytes int64
}

// NewPassHandler creates a new handler.
func NewPassHandler(svc passService, gates scanHistoryService, maxBytes int64) *PassHandler {
	return &PassHandler{service: svc, gates: gates, maxBytes: maxBytes}
}

// Request godoc
// @Summary Submit a leave request
// @Description Create a new pass request with a supporting proof document
// @Tags GatePass
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param reg_no formData string true "Registration number"
// @Param purpose formData string true "Purpose of leave"
// @Param leave_time formData string true "Leave time"
// @Param return_time formData string true "Return time"
// @Param proof formData file true "Proof document"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /gate-pass/request [post]
func (h *PassHandler) Request(c *gin.Context) {
	var req dto.SubmitPassRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pass request form"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleAdmin && claims.RegNo != req.RegNo {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot request a pass for another identity"))
		return
	}

	var proof *service.ProofUpload
	if data, mime, err := readFormFile(c, "proof", h.maxBytes); err == nil {
		proof = &service.ProofUpload{MIME: mime, Data: data}
	} else if errors.Is(err, errFileTooLarge) {
		response.Error(c, errFileTooLarge)
		return
	}

	pass, err := h.service.Submit(c.Request.Context(), req, proof)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"message": "Gate pass request submitted",
		"pass":    pass,
	})
}

// MyPasses godoc
// @Summary List the caller's passes
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param reg_no path string true "Registration number"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/my-passes/{reg_no} [get]
func (h *PassHandler) MyPasses(c *gin.Context) {
	regNo := c.Param("reg_no")
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleAdmin && claims.RegNo != regNo {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot list passes of another identity"))
		return
	}

	passes, err := h.service.MyPasses(c.Request.Context(), regNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"data": passes})
}

// Get godoc
// @Summary Fetch one pass
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/{id} [get]
func (h *PassHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role != models.RoleAdmin && claims.RegNo != detail.RegNo {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "pass belongs to another identity"))
		return
	}
	response.OK(c, gin.H{"pass": detail})
}

// Cancel godoc
// @Summary Withdraw a pending or approved pass
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/{id}/cancel [post]
func (h *PassHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims.RegNo); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Gate pass cancelled"})
}

// Review godoc
// @Summary Approve or reject a pending pass
// @Tags GatePass
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Param payload body dto.ReviewPassRequest true "Decision"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /gate-pass/{id}/review [post]
func (h *PassHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	pass, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims.RegNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"pass": pass})
}

// Token godoc
// @Summary Fetch the signed QR token for an approved pass
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/{id}/token [get]
func (h *PassHandler) Token(c *gin.Context) {
	token, expiresAt, err := h.service.QRToken(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"qr_content": token,
		"expires_at": expiresAt,
	})
}

// QRImage godoc
// @Summary Render the pass QR code as PNG
// @Tags GatePass
// @Produce image/png
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {file} binary
// @Router /gate-pass/{id}/qr.png [get]
func (h *PassHandler) QRImage(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	png, err := h.service.QRPNG(c.Request.Context(), c.Param("id"), claimsFromContext(c), size)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// PDF godoc
// @Summary Render a printable pass document
// @Tags GatePass
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {file} binary
// @Router /gate-pass/{id}/pdf [get]
func (h *PassHandler) PDF(c *gin.Context) {
	pdf, err := h.service.PassPDF(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="gate-pass.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Remint godoc
// @Summary Rotate the pass token, invalidating previously issued QR codes
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/{id}/remint [post]
func (h *PassHandler) Remint(c *gin.Context) {
	token, err := h.service.RemintToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"qr_content": token})
}

// ProofURL godoc
// @Summary Issue a short-lived signed download link for the proof document
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/{id}/proof-url [get]
func (h *PassHandler) ProofURL(c *gin.Context) {
	token, expiresAt, err := h.service.ProofURL(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"download_token": token,
		"expires_at":     expiresAt,
	})
}

// Proof godoc
// @Summary Download a proof document with a signed token
// @Tags GatePass
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} map[string]interface{}
// @Router /gate-pass/proofs [get]
func (h *PassHandler) Proof(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	file, mimeType, err := h.service.OpenProof(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	c.Header("Content-Type", mimeType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

// Scans godoc
// @Summary Scan history for a pass
// @Tags GatePass
// @Produce json
// @Security BearerAuth
// @Param id path string true "Pass ID"
// @Success 200 {object} map[string]interface{}
// @Router /gate-pass/{id}/scans [get]
func (h *PassHandler) Scans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := h.gates.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"scans": events})
}
