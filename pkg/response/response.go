package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/campus-gatepass-api/pkg/errors"
)

// The mobile client discriminates on a top-level "status" field and
// expects every failure to carry a human-readable "detail" string, so
// the envelope here is flat rather than a nested data/error wrapper.

// Success merges the payload into a {"status":"success"} body.
func Success(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"status": "success"}
	for k, v := range payload {
		body[k] = v
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(status, body)
}

// OK is shorthand for a 200 success response.
func OK(c *gin.Context, payload gin.H) {
	Success(c, http.StatusOK, payload)
}

// Created is shorthand for a 201 success response.
func Created(c *gin.Context, payload gin.H) {
	Success(c, http.StatusCreated, payload)
}

// Error converts any error into the client error contract.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, gin.H{
		"status": "error",
		"code":   appErr.Code,
		"detail": appErr.Message,
	})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
