package model

import "time"

const (
	OrderStatusSuccess = "success"
)

type Order struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   string    `gorm:"uniqueIndex;not null" json:"orderId"`   // Gateway order reference
	PaymentID string    `gorm:"uniqueIndex;not null" json:"paymentId"` // Gateway payment reference
	Status    string    `gorm:"not null" json:"status"`
	UserID    string    `gorm:"index;not null" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
