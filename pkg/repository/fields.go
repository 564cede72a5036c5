package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/distributor/pkg/models"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// SetMeta replaces the item's meta with meta. Existing keys for which
// preserve returns true survive unless meta sets them.
func (r *Repository) SetMeta(ctx context.Context, id int64, meta map[string][]string, preserve func(key string) bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setMeta(tx, id, meta, preserve)
	})
}

// SetTerms replaces the item's terms, creating missing terms by
// (taxonomy, slug).
func (r *Repository) SetTerms(ctx context.Context, id int64, terms map[string][]syndication.TermRef) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setTerms(tx, id, terms)
	})
}

// SetMedia replaces the item's media references.
func (r *Repository) SetMedia(ctx context.Context, id int64, media []syndication.MediaRef) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setMedia(tx, id, media)
	})
}

func setMeta(tx *gorm.DB, id int64, meta map[string][]string, preserve func(string) bool) error {
	var existing []string
	if err := tx.Model(&models.ItemMeta{}).Where("item_id = ?", id).Distinct().Pluck("key", &existing).Error; err != nil {
		return fmt.Errorf("failed to load meta keys: %w", err)
	}

	var drop []string
	for _, key := range existing {
		_, overwritten := meta[key]
		if overwritten || preserve == nil || !preserve(key) {
			drop = append(drop, key)
		}
	}
	if len(drop) > 0 {
		if err := tx.Where("item_id = ? AND key IN ?", id, drop).Delete(&models.ItemMeta{}).Error; err != nil {
			return fmt.Errorf("failed to delete meta: %w", err)
		}
	}

	var rows []models.ItemMeta
	for key, values := range meta {
		for i, v := range values {
			rows = append(rows, models.ItemMeta{ItemID: id, Key: key, Value: v, Position: i})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert meta: %w", err)
	}
	return nil
}

func setTerms(tx *gorm.DB, id int64, terms map[string][]syndication.TermRef) error {
	var resolved []models.Term
	for taxonomy, refs := range terms {
		bySlug := make(map[string]*models.Term, len(refs))
		for _, ref := range refs {
			t := &models.Term{Taxonomy: taxonomy, Slug: ref.Slug, Name: ref.Name}
			if t.Name == "" {
				t.Name = ref.Slug
			}
			if err := t.FirstOrCreate(tx); err != nil {
				return fmt.Errorf("failed to resolve term %s/%s: %w", taxonomy, ref.Slug, err)
			}
			bySlug[ref.Slug] = t
			resolved = append(resolved, *t)
		}

		for _, ref := range refs {
			if ref.ParentSlug == "" {
				continue
			}
			parent, ok := bySlug[ref.ParentSlug]
			if !ok {
				parent = &models.Term{Taxonomy: taxonomy, Slug: ref.ParentSlug, Name: ref.ParentSlug}
				if err := parent.FirstOrCreate(tx); err != nil {
					return fmt.Errorf("failed to resolve parent term %s/%s: %w", taxonomy, ref.ParentSlug, err)
				}
			}
			child := bySlug[ref.Slug]
			if child.ParentID == parent.ID {
				continue
			}
			if err := tx.Model(child).Update("parent_id", parent.ID).Error; err != nil {
				return fmt.Errorf("failed to set parent of term %s/%s: %w", taxonomy, ref.Slug, err)
			}
		}
	}

	ids := make([]int64, 0, len(resolved))
	for _, t := range resolved {
		ids = append(ids, t.ID)
	}
	if err := models.ReplaceItemTerms(tx, id, ids); err != nil {
		return fmt.Errorf("failed to replace terms: %w", err)
	}
	return nil
}

func setMedia(tx *gorm.DB, id int64, media []syndication.MediaRef) error {
	if err := tx.Where("item_id = ?", id).Delete(&models.Media{}).Error; err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if len(media) == 0 {
		return nil
	}

	rows := make([]models.Media, 0, len(media))
	for i, m := range media {
		rows = append(rows, models.Media{
			ItemID:    id,
			SourceURL: m.SourceURL,
			Title:     m.Title,
			Caption:   m.Caption,
			AltText:   m.AltText,
			MimeType:  m.MimeType,
			Featured:  m.Featured,
			Position:  i,
			Meta:      m.Meta,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}
	return nil
}
