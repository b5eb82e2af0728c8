package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-gatepass-api/internal/service"
	"github.com/noah-isme/campus-gatepass-api/pkg/response"
)

// ContextDeviceKey is the gin context key storing the authenticated gate device.
const ContextDeviceKey = "currentDevice"

// DeviceKey authenticates checkpoint scanners by their X-Device-Key
// header. The key is hashed before lookup; plaintext keys never touch
// the database.
func DeviceKey(deviceService *service.DeviceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		device, err := deviceService.Authenticate(c.Request.Context(), c.GetHeader("X-Device-Key"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextDeviceKey, device)
		c.Next()
	}
}
