package user

import (
	"bitwise74/expense-api/app/respond"
	"bitwise74/expense-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func UserRegister(c *gin.Context, d *internal.Deps) {
	var data registerBody
	if err := c.ShouldBindJSON(&data); err != nil {
		respond.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := d.Auth.Register(c.Request.Context(), data.Name, data.Email, data.Password)
	if err != nil {
		respond.Error(c, err)
		return
	}

	zap.L().Info("User registered", zap.String("userID", userID))

	respond.OK(c, http.StatusCreated, gin.H{
		"message": "User signed up successfully",
		"userId":  userID,
	})
}
