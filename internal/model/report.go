package model

import "time"

// Report is an exported expense workbook stored in S3
type Report struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"index;not null" json:"-"`
	ObjectKey string    `gorm:"not null" json:"objectKey"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"createdAt"`
}
