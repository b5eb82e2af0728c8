package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/response"
)

type deviceRegistry interface {
	Create(ctx context.Context, req dto.CreateDeviceRequest) (*models.GateDevice, string, error)
	List(ctx context.Context) ([]models.GateDevice, error)
	Update(ctx context.Context, id string, req dto.UpdateDeviceRequest) (*models.GateDevice, error)
	Delete(ctx context.Context, id string) error
}

// DeviceHandler manages checkpoint scanner registrations.
type DeviceHandler struct {
	service deviceRegistry
}

// NewDeviceHandler creates a new handler.
func NewDeviceHandler(svc deviceRegistry) *DeviceHandler {
	return &DeviceHandler{service: svc}
}

// Create godoc
// @Summary Register a gate device
// @Description The plaintext API key is returned exactly once
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateDeviceRequest true "Device"
// @Success 201 {object} map[string]interface{}
// @Router /devices [post]
func (h *DeviceHandler) Create(c *gin.Context) {
	var req dto.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid device payload"))
		return
	}

	device, key, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"device":  device,
		"api_key": key,
	})
}

// List godoc
// @Summary List gate devices
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /devices [get]
func (h *DeviceHandler) List(c *gin.Context) {
	devices, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"devices": devices})
}

// Update godoc
// @Summary Update a gate device
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Param payload body dto.UpdateDeviceRequest true "Changes"
// @Success 200 {object} map[string]interface{}
// @Router /devices/{id} [patch]
func (h *DeviceHandler) Update(c *gin.Context) {
	var req dto.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid device payload"))
		return
	}

	device, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"device": device})
}

// Delete godoc
// @Summary Remove a gate device
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Device ID"
// @Success 204
// @Router /devices/{id} [delete]
func (h *DeviceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
