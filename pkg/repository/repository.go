// Package repository implements the syndication stores on gorm.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/distributor/pkg/models"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Repository stores content items, content types, linkage and subscriptions.
type Repository struct {
	db     *gorm.DB
	hooks  *syndication.Hooks
	logger hclog.Logger
}

var (
	_ syndication.LocalRepository   = (*Repository)(nil)
	_ syndication.TypeRegistry      = (*Repository)(nil)
	_ syndication.LinkageStore      = (*Repository)(nil)
	_ syndication.SubscriptionStore = (*Repository)(nil)
)

// New creates a Repository. hooks may be nil.
func New(db *gorm.DB, hooks *syndication.Hooks, logger hclog.Logger) *Repository {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if hooks == nil {
		hooks = syndication.NewHooks(logger)
	}
	return &Repository{db: db, hooks: hooks, logger: logger}
}

// Hooks returns the registry fired on saves.
func (r *Repository) Hooks() *syndication.Hooks {
	return r.hooks
}

// DB returns the underlying connection.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

func notFound(op string, format string, args ...interface{}) error {
	return syndication.NewError(syndication.KindNotFound, op, fmt.Sprintf(format, args...))
}

// Get loads an item with its meta, terms and media.
func (r *Repository) Get(ctx context.Context, id int64) (*syndication.Content, error) {
	if id <= 0 {
		return nil, notFound("get", "item %d not found", id)
	}

	db := r.db.WithContext(ctx)
	item := &models.Item{ID: id}
	if err := item.Get(db); err != nil {
		if models.IsNotFound(err) {
			return nil, notFound("get", "item %d not found", id)
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	parents, err := r.parentSlugs(db, item.Terms)
	if err != nil {
		return nil, err
	}
	return contentFromItem(item, parents), nil
}

func (r *Repository) parentSlugs(db *gorm.DB, terms []models.Term) (map[int64]string, error) {
	var ids []int64
	for _, t := range terms {
		if t.ParentID != 0 {
			ids = append(ids, t.ParentID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var parents []models.Term
	if err := db.Where("id IN ?", ids).Find(&parents).Error; err != nil {
		return nil, fmt.Errorf("failed to load parent terms: %w", err)
	}
	out := make(map[int64]string, len(parents))
	for _, p := range parents {
		out[p.ID] = p.Slug
	}
	return out, nil
}

// Save inserts c when c.ID is zero and updates it otherwise. Meta, terms and
// media are replaced when the corresponding field of c is non-nil and left
// untouched otherwise. The content.saved hook fires after the write.
func (r *Repository) Save(ctx context.Context, c *syndication.Content) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("invalid content: %w", err)
	}

	item := itemFromContent(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.ID == 0 {
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to create item: %w", err)
			}
		} else {
			item.UpdatedAt = time.Now()
			res := tx.Model(item).
				Select("type", "title", "body", "excerpt", "slug", "status", "author", "parent_id", "updated_at").
				Updates(item)
			if res.Error != nil {
				return fmt.Errorf("failed to update item: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return notFound("save", "item %d not found", item.ID)
			}
		}

		if c.Meta != nil {
			if err := setMeta(tx, item.ID, c.Meta, nil); err != nil {
				return err
			}
		}
		if c.Terms != nil {
			if err := setTerms(tx, item.ID, c.Terms); err != nil {
				return err
			}
		}
		if c.Media != nil {
			if err := setMedia(tx, item.ID, c.Media); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Debug("saved item", "id", item.ID, "type", item.Type)
	r.hooks.Fire(ctx, syndication.HookContentSaved, item.ID)
	return item.ID, nil
}

// Delete removes an item and its associations.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item := &models.Item{ID: id}
		if err := models.ReplaceItemTerms(tx, id, nil); err != nil {
			return fmt.Errorf("failed to clear terms: %w", err)
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.ItemMeta{}).Error; err != nil {
			return fmt.Errorf("failed to delete meta: %w", err)
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.Media{}).Error; err != nil {
			return fmt.Errorf("failed to delete media: %w", err)
		}
		res := tx.Delete(item)
		if res.Error != nil {
			return fmt.Errorf("failed to delete item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound("delete", "item %d not found", id)
		}
		return nil
	})
}

// List returns items of a type ordered by ID, without associations.
func (r *Repository) List(ctx context.Context, postType string, limit, offset int) ([]syndication.Content, error) {
	var items []models.Item
	q := r.db.WithContext(ctx).Order("id ASC")
	if postType != "" {
		q = q.Where("type = ?", postType)
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	out := make([]syndication.Content, 0, len(items))
	for i := range items {
		out = append(out, *contentFromItem(&items[i], nil))
	}
	return out, nil
}
