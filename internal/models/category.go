package models

// Category represents a transaction category. Categories form a forest per
// owner via the nullable ParentID self-reference; no category may be its own
// ancestor.
type Category struct {
	Base
	OwnerID  string  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name     string  `gorm:"not null" json:"name"`
	Color    string  `json:"color,omitempty"`
	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	// Relationships
	Parent       *Category     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children     []Category    `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}

// CategoryNode is one node of the nested hierarchy view. The flat listing and
// the tree are two views of the same table; the tree is assembled in memory.
type CategoryNode struct {
	Category
	Nodes []*CategoryNode `json:"children"`
}
