package models

import "time"

// User is the account-holder identity every other entity is scoped to.
// Services never read it implicitly; handlers resolve the authenticated user
// and pass its ID as an explicit owner parameter.
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	Accounts     []Account     `gorm:"foreignKey:OwnerID" json:"accounts,omitempty"`
	Categories   []Category    `gorm:"foreignKey:OwnerID" json:"categories,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:OwnerID" json:"transactions,omitempty"`
}
