package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/middleware"
	"github.com/noah-isme/campus-gatepass-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func deviceFromContext(c *gin.Context) *models.GateDevice {
	value, exists := c.Get(middleware.ContextDeviceKey)
	if !exists {
		return nil
	}
	device, ok := value.(*models.GateDevice)
	if !ok {
		return nil
	}
	return device
}

// readFormFile loads a multipart file part into memory, bounded by the
// configured upload limit.
func readFormFile(c *gin.Context, field string, maxBytes int64) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return nil, "", errFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close() //nolint:errcheck

	reader := io.Reader(file)
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", errFileTooLarge
	}
	return data, fileHeader.Header.Get("Content-Type"), nil
}
