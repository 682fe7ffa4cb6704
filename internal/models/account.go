package models

import "time"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeCash       AccountType = "cash"
)

// Account represents a financial account. Balance is a cached derived value:
// it always equals InitialBalance plus the signed effect of every non-parent
// transaction touching the account. It is written only by the ledger
// services, never directly by callers.
type Account struct {
	Base
	OwnerID            string      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name               string      `gorm:"not null" json:"name"`
	Type               AccountType `gorm:"not null" json:"type"`
	Balance            int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	InitialBalance     int64       `gorm:"type:bigint;not null;default:0" json:"initial_balance"`
	InitialBalanceDate *time.Time  `json:"initial_balance_date,omitempty"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
