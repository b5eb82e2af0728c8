package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/response"
)

type telemetryRecorder interface {
	Ingest(ctx context.Context, device *models.GateDevice, req dto.IngestTelemetryRequest) (*models.TelemetryReading, error)
	Readings(ctx context.Context, deviceID string, limit int) ([]models.TelemetryReading, error)
	Latest(ctx context.Context, deviceID string) (*models.TelemetryReading, error)
}

// TelemetryHandler serves gate device sensor readings.
type TelemetryHandler struct {
	service telemetryRecorder
}

// NewTelemetryHandler creates a new handler.
func NewTelemetryHandler(svc telemetryRecorder) *TelemetryHandler {
	return &TelemetryHandler{service: svc}
}

// Ingest godoc
// @Summary Report a sensor reading
// @Description The reading is attributed to the device presenting the API key
// @Tags Telemetry
// @Accept json
// @Produce json
// @Param X-Device-Key header string true "Device API key"
// @Param payload body dto.IngestTelemetryRequest true "Reading"
// @Success 201 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /telemetry [post]
func (h *TelemetryHandler) Ingest(c *gin.Context) {
	device := deviceFromContext(c)
	if device == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.IngestTelemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid telemetry payload"))
		return
	}

	reading, err := h.service.Ingest(c.Request.Context(), device, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"reading": reading})
}

// Readings godoc
// @Summary Recent sensor readings for a device
// @Tags Telemetry
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Param limit query int false "Max readings (default 100, cap 1000)"
// @Success 200 {object} map[string]interface{}
// @Router /devices/{id}/telemetry [get]
func (h *TelemetryHandler) Readings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	readings, err := h.service.Readings(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"readings": readings})
}

// Latest godoc
// @Summary Newest sensor reading for a device
// @Tags Telemetry
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /devices/{id}/telemetry/latest [get]
func (h *TelemetryHandler) Latest(c *gin.Context) {
	reading, err := h.service.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"reading": reading})
}
