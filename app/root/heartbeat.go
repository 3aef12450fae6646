package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Validate echoes the identity bound to the caller's token
func Validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"userId":    c.GetString("userID"),
		"isPremium": c.GetBool("isPremium"),
	})
}
