package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/hashicorp-forge/distributor/pkg/models"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// LookupType returns the registered content type.
func (r *Repository) LookupType(ctx context.Context, name string) (*syndication.TypeInfo, error) {
	var ct models.ContentType
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&ct).Error; err != nil {
		if models.IsNotFound(err) {
			return nil, notFound("lookup_type", "content type %q is not registered", name)
		}
		return nil, fmt.Errorf("failed to look up content type: %w", err)
	}
	return &syndication.TypeInfo{Name: ct.Name, RestBase: ct.RestBase, SupportsEditor: ct.SupportsEditor}, nil
}

// RegisterType inserts or updates a content type.
func (r *Repository) RegisterType(ctx context.Context, info syndication.TypeInfo) error {
	if info.Name == "" {
		return fmt.Errorf("content type name is required")
	}
	ct := models.ContentType{Name: info.Name, RestBase: info.RestBase, SupportsEditor: info.SupportsEditor}
	if ct.RestBase == "" {
		ct.RestBase = info.Name
	}
	return ct.Upsert(r.db.WithContext(ctx))
}

// ListTypes returns every registered content type ordered by name.
func (r *Repository) ListTypes(ctx context.Context) ([]syndication.TypeInfo, error) {
	var cts []models.ContentType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cts).Error; err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}
	out := make([]syndication.TypeInfo, 0, len(cts))
	for _, ct := range cts {
		out = append(out, syndication.TypeInfo{Name: ct.Name, RestBase: ct.RestBase, SupportsEditor: ct.SupportsEditor})
	}
	return out, nil
}

// EnsureDefaultTypes registers the built-in content types that are missing.
func (r *Repository) EnsureDefaultTypes(ctx context.Context) error {
	defaults := models.DefaultContentTypes()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
}
