package middleware

import (
	"bitwise74/expense-api/pkg/security"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator resolves a session token to the identity it was issued for
type Authenticator interface {
	Authenticate(token string) (*security.Identity, error)
}

// NewJWTMiddleware accepts "Authorization: Bearer <token>" as well as the bare
// token in the same header. On success userID and isPremium are set on the context.
func NewJWTMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := RequestID(c)

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"message":   "Authorization token missing",
				"requestID": requestID,
			})
			return
		}

		identity, err := a.Authenticate(token)
		if err != nil {
			msg := "Authorization token invalid"
			if errors.Is(err, security.ErrTokenExpired) {
				msg = "Authorization token expired. Please log in again"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success":   false,
				"message":   msg,
				"requestID": requestID,
			})

			zap.L().Debug("Rejected token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", identity.UserID)
		c.Set("isPremium", identity.IsPremium)
		c.Next()
	}
}

// RequirePremium must run after NewJWTMiddleware
func RequirePremium() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isPremium") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":   false,
				"message":   "This feature requires a premium account",
				"requestID": RequestID(c),
			})
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)

	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}

	return header
}
