package models

// Transfer pairs the two transaction legs of a single transfer event.
// TransactionID is the "from" leg and serves as the primary lookup key;
// ToTransactionID is the credit-side leg so that deleting either leg can
// locate its sibling. Exactly one Transfer row exists per transfer event.
type Transfer struct {
	Base
	OwnerID         string `gorm:"type:uuid;not null;index" json:"owner_id"`
	TransactionID   string `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ToTransactionID string `gorm:"type:uuid;not null;index" json:"to_transaction_id"`
	FromAccountID   string `gorm:"type:uuid;not null;index" json:"from_account_id"`
	ToAccountID     string `gorm:"type:uuid;not null;index" json:"to_account_id"`

	// Relationships
	Transaction Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
	FromAccount Account     `gorm:"foreignKey:FromAccountID" json:"from_account,omitempty"`
	ToAccount   Account     `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
}
