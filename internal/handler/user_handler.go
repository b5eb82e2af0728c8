package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/dto"
	"github.com/noah-isme/campus-gatepass-api/internal/service"
	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
	"github.com/noah-isme/campus-gatepass-api/pkg/response"
	"github.com/noah-isme/campus-gatepass-api/pkg/storage"
)

var errFileTooLarge = appErrors.Clone(appErrors.ErrValidation, "uploaded file exceeds the size limit")

// UserHandler wires HTTP endpoints to the identity service.
type UserHandler struct {
	service  *service.IdentityService
	images   *storage.LocalStorage
	maxBytes int64
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.IdentityService, images *storage.LocalStorage, maxBytes int64) *UserHandler {
	return &UserHandler{service: svc, images: images, maxBytes: maxBytes}
}

// Register godoc
// @Summary Register a new account
// @Description Create an account from the multipart sign-up form with a profile photo
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param reg_no formData string true "Registration number"
// @Param password formData string true "Password"
// @Param email formData string true "Email"
// @Param image formData file true "Profile photo"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration form"))
		return
	}

	photo, _, err := readFormFile(c, "image", h.maxBytes)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			response.Error(c, errFileTooLarge)
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "profile image is required"))
		return
	}

	info, err := h.service.Register(c.Request.Context(), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"message": "User registered successfully",
		"user":    info,
	})
}

// Login godoc
// @Summary Authenticate an account
// @Description Verify credentials and issue an access token
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param reg_no formData string true "Registration number"
// @Param password formData string true "Password"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login form"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Authenticate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"access_token": res.AccessToken,
		"token_type":   "bearer",
		"expires_in":   res.ExpiresIn,
		"user":         res.User,
	})
}

// Me godoc
// @Summary Current profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	identity, err := h.service.Profile(c.Request.Context(), claims.RegNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": identity})
}

// Image godoc
// @Summary Serve a stored profile image
// @Tags Users
// @Produce image/jpeg
// @Param filename path string true "Image filename"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /images/{filename} [get]
func (h *UserHandler) Image(c *gin.Context) {
	filename := filepath.Base(strings.TrimSpace(c.Param("filename")))
	if filename == "" || filename == "." || filename == "/" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "filename required"))
		return
	}
	if !h.images.Exists(filename) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "image not found"))
		return
	}
	c.File(h.images.Path(filename))
}
