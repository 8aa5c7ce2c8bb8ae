// Package response writes the JSON envelope shared by every endpoint:
// {"success": bool, "message"?: string, "data"?: any, ...extra}.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindRateLimit:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// JSON writes a success envelope. extra keys sit beside data.
func JSON(c *gin.Context, status int, message string, data any, extra gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// OK writes a 200 response.
func OK(c *gin.Context, message string, data any) {
	JSON(c, http.StatusOK, message, data, nil)
}

// Created writes a 201 response.
func Created(c *gin.Context, message string, data any) {
	JSON(c, http.StatusCreated, message, data, nil)
}

// Error writes the failure envelope for err and aborts the chain.
// Unexpected errors are attached to the context for the request logger
// and reach the caller only as "Internal server error".
func Error(c *gin.Context, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Kind == domain.KindInternal {
		_ = c.Error(err)
		derr = domain.ErrInternal
	}
	body := gin.H{"success": false, "message": derr.Message}
	if len(derr.Fields) > 0 {
		body["errors"] = derr.Fields
	}
	for k, v := range derr.Details {
		body[k] = v
	}
	c.AbortWithStatusJSON(StatusFor(derr.Kind), body)
}
