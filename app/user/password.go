package user

import (
	"bitwise74/expense-api/app/respond"
	"bitwise74/expense-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type forgotBody struct {
	Email string `json:"email"`
}

type resetBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// UserForgotPassword mails a reset link to the account owner
func UserForgotPassword(c *gin.Context, d *internal.Deps) {
	var data forgotBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := d.Reset.Request(c.Request.Context(), data.Email); err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{
		"message": "Password reset email sent successfully",
	})
}

func UserResetPassword(c *gin.Context, d *internal.Deps) {
	var data resetBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := d.Reset.Complete(c.Request.Context(), data.Token, data.NewPassword); err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{
		"message": "Password has been successfully reset",
	})
}
