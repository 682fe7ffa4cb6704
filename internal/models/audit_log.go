package models

// AuditLog records mutating ledger operations (creates, deletes, balance
// recalculations) for after-the-fact review.
type AuditLog struct {
	Base
	OwnerID      string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}
