package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The client expects plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Expense struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string          `gorm:"index;not null" json:"userId"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Description string          `gorm:"not null" json:"description"`
	Category    string          `gorm:"not null" json:"category"`

	// Snapshot of the owner's running total when this row was created. Edits and
	// deletes of other rows don't touch it, use a live SUM for current totals.
	TotalExpense decimal.Decimal `gorm:"column:totalexpense;type:decimal(14,2);not null" json:"totalexpense"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
