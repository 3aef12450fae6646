package validators

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountMissing      = errors.New("amount is required")
	ErrAmountNegative     = errors.New("amount can't be negative")
	ErrAmountTooPrecise   = errors.New("amount can have at most 2 decimal places")
	ErrAmountTooLarge     = errors.New("amount is too large")
	ErrDescriptionMissing = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrCategoryMissing    = errors.New("category is required")
	ErrCategoryTooLong    = errors.New("category is too long")
)

const (
	maxDescriptionLen = 255
	maxCategoryLen    = 64
)

// Matches the decimal(14,2) column
var maxAmount = decimal.New(1, 12)

// ExpenseInput is the user editable part of an expense
type ExpenseInput struct {
	Amount      decimal.NullDecimal `json:"amount"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
}

// ExpenseValidator checks every field and trims the text ones in place
func ExpenseValidator(e *ExpenseInput) error {
	if !e.Amount.Valid {
		return ErrAmountMissing
	}

	if e.Amount.Decimal.IsNegative() {
		return ErrAmountNegative
	}

	if e.Amount.Decimal.Exponent() < -2 && !e.Amount.Decimal.Equal(e.Amount.Decimal.Round(2)) {
		return ErrAmountTooPrecise
	}

	if e.Amount.Decimal.GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}

	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return ErrDescriptionMissing
	}

	if len(e.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}

	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		return ErrCategoryMissing
	}

	if len(e.Category) > maxCategoryLen {
		return ErrCategoryTooLong
	}

	return nil
}
