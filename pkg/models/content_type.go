package models

import "gorm.io/gorm"

// ContentType is a registered local content type.
type ContentType struct {
	Name           string `gorm:"type:varchar(64);primaryKey" json:"name"`
	RestBase       string `gorm:"type:varchar(64);not null" json:"restBase"`
	SupportsEditor bool   `gorm:"not null;default:false" json:"supportsEditor"`
}

// TableName specifies the table name.
func (ContentType) TableName() string {
	return "content_types"
}

// DefaultContentTypes are registered on first use of an empty registry.
func DefaultContentTypes() []ContentType {
	return []ContentType{
		{Name: "post", RestBase: "posts", SupportsEditor: true},
		{Name: "page", RestBase: "pages", SupportsEditor: true},
		{Name: "attachment", RestBase: "media", SupportsEditor: false},
	}
}

// Upsert inserts the content type or updates its fields.
func (c *ContentType) Upsert(db *gorm.DB) error {
	return db.Save(c).Error
}
