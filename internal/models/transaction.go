package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction represents a single ledger entry. Amount is a strictly positive
// magnitude in minor currency units; direction comes from Type (and, for
// transfer legs, from the Transfer record that pairs the two legs).
//
// A row is exactly one of: a regular transaction (IsParent=false,
// ParentID=nil), a transfer leg (Type=transfer, paired via a Transfer
// record), a split parent (IsParent=true, no category, amount equal to the
// sum of its children), or a split child (ParentID set, own category).
// Split parents never contribute to balances or reports; their children do.
type Transaction struct {
	Base
	OwnerID     string          `gorm:"type:uuid;not null;index" json:"owner_id"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `gorm:"not null" json:"description"`
	Notes       string          `json:"notes,omitempty"`
	Date        time.Time       `gorm:"not null" json:"date"`
	IsParent    bool            `gorm:"not null;default:false" json:"is_parent"`
	ParentID    *string         `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	DocumentID  *string         `gorm:"type:uuid" json:"document_id,omitempty"`

	// Relationships
	Account  Account       `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Children []Transaction `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Document *Document     `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Tags     []Tag         `gorm:"many2many:transaction_tags" json:"tags,omitempty"`
}
