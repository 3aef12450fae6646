// Package respond writes the JSON envelope shared by every handler
package respond

import (
	"bitwise74/expense-api/internal/service"
	"bitwise74/expense-api/pkg/middleware"
	"bitwise74/expense-api/pkg/security"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fail answers with {success:false, message, requestID}
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":   false,
		"message":   message,
		"requestID": middleware.RequestID(c),
	})
}

// Error maps a service error to its status code. Anything it doesn't
// recognise is logged and hidden behind a generic message.
func Error(c *gin.Context, err error) {
	status, message := Status(err)

	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		zap.L().Error(message,
			zap.Error(err),
			zap.String("requestID", middleware.RequestID(c)),
			zap.String("userID", c.GetString("userID")),
		)
	}

	Fail(c, status, message)
}

// Status returns the HTTP status and client-facing message for err
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidPayload):
		// Validation errors carry the failing field, safe to show
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, security.ErrTokenInvalid),
		errors.Is(err, security.ErrTokenExpired):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrPaymentNotCaptured):
		return http.StatusPaymentRequired, service.ErrPaymentNotCaptured.Error()
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrExpenseNotFound),
		errors.Is(err, service.ErrNoExpenses),
		errors.Is(err, service.ErrInvalidResetToken):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusConflict, service.ErrDuplicateEmail.Error()
	case errors.Is(err, service.ErrGateway):
		return http.StatusBadGateway, service.ErrGateway.Error()
	case errors.Is(err, service.ErrEmailDelivery):
		return http.StatusInternalServerError, service.ErrEmailDelivery.Error()
	case errors.Is(err, service.ErrReportsDisabled):
		return http.StatusServiceUnavailable, service.ErrReportsDisabled.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// OK answers with {success:true} merged with body
func OK(c *gin.Context, status int, body gin.H) {
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}

	c.JSON(status, out)
}
