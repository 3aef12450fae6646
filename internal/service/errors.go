package service

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("this email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpenseNotFound    = errors.New("expense not found or unauthorized")
	ErrNoExpenses         = errors.New("no expenses found for this user")
	ErrInvalidPayload     = errors.New("invalid request payload")
	ErrGateway            = errors.New("payment gateway error")
	ErrPaymentNotCaptured = errors.New("payment not captured or invalid payment ID")
	ErrEmailDelivery      = errors.New("failed to send reset email")
	ErrInvalidResetToken  = errors.New("invalid or expired token")
	ErrReportsDisabled    = errors.New("report export is disabled")
)
