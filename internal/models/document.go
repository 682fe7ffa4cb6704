package models

// Document is the metadata row for an uploaded source document (receipt,
// bank statement). The bytes live in blob storage under StorageKey;
// transactions reference documents through their optional DocumentID.
type Document struct {
	Base
	OwnerID     string `gorm:"type:uuid;not null;index" json:"owner_id"`
	FileName    string `gorm:"not null" json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `gorm:"type:bigint;not null" json:"size"`
	StorageKey  string `gorm:"not null" json:"-"`
}
