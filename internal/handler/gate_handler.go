package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/response"
)

type gateVerifier interface {
	Verify(ctx context.Context, device *models.GateDevice, qrContent string, captured io.Reader) (*dto.VerifyResult, error)
}

// GateHandler wires the checkpoint verification endpoint.
type GateHandler struct {
	service  gateVerifier
	maxBytes int64
}

// NewGateHandler creates a new handler.
func NewGateHandler(svc gateVerifier, maxBytes int64) *GateHandler {
	return &GateHandler{service: svc, maxBytes: maxBytes}
}

// Verify godoc
// @Summary Verify a presented pass token
// @Description Validate the QR content scanned at a checkpoint and consume the pass
// @Tags Gate
// @Accept multipart/form-data
// @Produce json
// @Param X-Device-Key header string true "Device API key"
// @Param qr_content formData string true "Scanned QR content"
// @Param face_image formData file false "Captured face photo"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 410 {object} map[string]interface{}
// @Router /verify [post]
func (h *GateHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBind(&req); err != nil || req.QRContent == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "qr_content required"))
		return
	}

	var captured io.Reader
	if data, _, err := readFormFile(c, "face_image", h.maxBytes); err == nil {
		captured = bytes.NewReader(data)
	} else if errors.Is(err, errFileTooLarge) {
		response.Error(c, errFileTooLarge)
		return
	}

	result, err := h.service.Verify(c.Request.Context(), deviceFromContext(c), req.QRContent, captured)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Access granted",
		"pass":    result,
	})
}
