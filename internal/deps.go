package internal

import (
	"bitwise74/expense-api/internal/service"
	"bitwise74/expense-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Argon    *security.ArgonHash
	Tokens   *security.Tokens
	Auth     *service.Auth
	Expenses *service.Expenses
	Premium  *service.Premium
	Reset    *service.PasswordReset
	Reports  *service.Reports
}
