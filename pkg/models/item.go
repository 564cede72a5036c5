package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Item is a locally stored content item.
type Item struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Type     string `gorm:"type:varchar(64);not null;index:idx_items_type" json:"type"`
	Title    string `gorm:"type:text" json:"title"`
	Body     string `gorm:"type:text" json:"body"`
	Excerpt  string `gorm:"type:text" json:"excerpt"`
	Slug     string `gorm:"type:varchar(200);index:idx_items_slug" json:"slug"`
	Status   string `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Author   string `gorm:"type:varchar(200)" json:"author"`
	ParentID int64  `gorm:"not null;default:0" json:"parent"`

	// Timestamps
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Associations
	Meta  []ItemMeta `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"meta,omitempty"`
	Media []Media    `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
	Terms []Term     `gorm:"many2many:item_terms;constraint:OnDelete:CASCADE" json:"terms,omitempty"`
}

// TableName specifies the table name.
func (Item) TableName() string {
	return "items"
}

// Item status constants
const (
	ItemStatusDraft   = "draft"
	ItemStatusPublish = "publish"
	ItemStatusPending = "pending"
	ItemStatusPrivate = "private"
)

// BeforeSave hook to ensure required fields.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	if i.Type == "" {
		return fmt.Errorf("type is required")
	}
	if i.Status == "" {
		i.Status = ItemStatusDraft
	}
	return nil
}

// Get loads the item by ID with its meta, media and terms.
func (i *Item) Get(db *gorm.DB) error {
	if i.ID == 0 {
		return fmt.Errorf("id is required")
	}
	return db.
		Preload("Meta", func(db *gorm.DB) *gorm.DB { return db.Order("key ASC, position ASC") }).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Terms", func(db *gorm.DB) *gorm.DB { return db.Order("taxonomy ASC, slug ASC") }).
		First(i, i.ID).Error
}

// IsNotFound reports whether err is gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ItemMeta is one value of a custom field. Multi-valued fields use one row
// per value ordered by Position.
type ItemMeta struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	ItemID   int64  `gorm:"not null;index:idx_item_meta_item_key" json:"itemId"`
	Key      string `gorm:"type:varchar(255);not null;index:idx_item_meta_item_key" json:"key"`
	Value    string `gorm:"type:text" json:"value"`
	Position int    `gorm:"not null;default:0" json:"position"`
}

// TableName specifies the table name.
func (ItemMeta) TableName() string {
	return "item_meta"
}
