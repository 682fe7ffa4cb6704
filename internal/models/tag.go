package models

// Tag is a free-form label on transactions, unique by name per owner.
type Tag struct {
	Base
	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name    string `gorm:"not null" json:"name"`

	// Relationships
	Transactions []Transaction `gorm:"many2many:transaction_tags" json:"transactions,omitempty"`
}
