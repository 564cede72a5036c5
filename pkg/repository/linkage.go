package repository

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/distributor/pkg/models"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// PushedLinkage returns the linkage recorded when localID was pushed to the
// connection.
func (r *Repository) PushedLinkage(ctx context.Context, localID, connectionID int64) (*syndication.Linkage, error) {
	l, err := models.FindPushedLinkage(r.db.WithContext(ctx), localID, connectionID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, notFound("pushed_linkage", "item %d has not been pushed to connection %d", localID, connectionID)
		}
		return nil, fmt.Errorf("failed to find pushed linkage: %w", err)
	}
	return linkageFromModel(l), nil
}

// PulledLinkage returns the linkage recorded when remotePostID was pulled
// from the connection.
func (r *Repository) PulledLinkage(ctx context.Context, connectionID, remotePostID int64) (*syndication.Linkage, error) {
	l, err := models.FindPulledLinkage(r.db.WithContext(ctx), connectionID, remotePostID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, notFound("pulled_linkage", "remote item %d has not been pulled from connection %d", remotePostID, connectionID)
		}
		return nil, fmt.Errorf("failed to find pulled linkage: %w", err)
	}
	return linkageFromModel(l), nil
}

// SaveLinkage inserts or replaces a linkage.
func (r *Repository) SaveLinkage(ctx context.Context, l *syndication.Linkage) error {
	m := &models.Linkage{
		LocalID:      l.LocalID,
		ConnectionID: l.ConnectionID,
		RemotePostID: l.RemotePostID,
		RemoteURL:    l.RemoteURL,
		Direction:    string(l.Direction),
		Unlinked:     l.Unlinked,
		SyncedAt:     l.SyncedAt,
	}
	if err := m.Upsert(r.db.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to save linkage: %w", err)
	}
	return nil
}

// SetUnlinked marks a pulled copy so later pulls leave it alone, or clears
// the mark.
func (r *Repository) SetUnlinked(ctx context.Context, localID, connectionID int64, unlinked bool) error {
	res := r.db.WithContext(ctx).Model(&models.Linkage{}).
		Where("local_id = ? AND connection_id = ? AND direction = ?", localID, connectionID, models.LinkageDirectionPulled).
		Update("unlinked", unlinked)
	if res.Error != nil {
		return fmt.Errorf("failed to update linkage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("set_unlinked", "item %d was not pulled from connection %d", localID, connectionID)
	}
	return nil
}
