package models

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Term is a taxonomy term. Terms are unique by (taxonomy, slug).
type Term struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Taxonomy string `gorm:"type:varchar(64);not null;uniqueIndex:idx_terms_taxonomy_slug" json:"taxonomy"`
	Slug     string `gorm:"type:varchar(200);not null;uniqueIndex:idx_terms_taxonomy_slug" json:"slug"`
	Name     string `gorm:"type:varchar(200);not null" json:"name"`
	ParentID int64  `gorm:"not null;default:0" json:"parent"`
}

// TableName specifies the table name.
func (Term) TableName() string {
	return "terms"
}

// FirstOrCreate finds the term by (taxonomy, slug) or inserts it. On return
// t.ID is set.
func (t *Term) FirstOrCreate(db *gorm.DB) error {
	if t.Taxonomy == "" || t.Slug == "" {
		return fmt.Errorf("taxonomy and slug are required")
	}

	err := db.Where("taxonomy = ? AND slug = ?", t.Taxonomy, t.Slug).First(t).Error
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return err
	}

	// A concurrent insert of the same key is ignored and re-read below.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(t).Error; err != nil {
		return err
	}
	return db.Where("taxonomy = ? AND slug = ?", t.Taxonomy, t.Slug).First(t).Error
}

// ItemTerm is a row of the item/term join table.
type ItemTerm struct {
	ItemID int64 `gorm:"primaryKey;autoIncrement:false"`
	TermID int64 `gorm:"primaryKey;autoIncrement:false"`
}

// TableName specifies the table name.
func (ItemTerm) TableName() string {
	return "item_terms"
}

// ReplaceItemTerms sets the terms attached to an item. It writes the join
// table directly so the item row and its hooks are not touched.
func ReplaceItemTerms(db *gorm.DB, itemID int64, termIDs []int64) error {
	if err := db.Where("item_id = ?", itemID).Delete(&ItemTerm{}).Error; err != nil {
		return err
	}
	seen := make(map[int64]bool, len(termIDs))
	rows := make([]ItemTerm, 0, len(termIDs))
	for _, id := range termIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, ItemTerm{ItemID: itemID, TermID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Create(&rows).Error
}
