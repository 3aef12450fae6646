// Package model defines database models
package model

import "time"

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"` // argon2id PHC string, bcrypt for accounts imported from the old app
	IsPremium bool   `gorm:"default:false" json:"isPremium"`

	// At most one reset token is outstanding at a time, requesting a new one overwrites it
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Expenses []Expense `gorm:"foreignKey:UserID" json:"-"`
	Orders   []Order   `gorm:"foreignKey:UserID" json:"-"`
	Reports  []Report  `gorm:"foreignKey:UserID" json:"-"`
}
