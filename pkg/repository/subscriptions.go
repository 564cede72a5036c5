package repository

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/distributor/pkg/models"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// GetSubscription returns the outbound subscription of a pair.
func (r *Repository) GetSubscription(ctx context.Context, localID, connectionID int64) (*syndication.Subscription, error) {
	s, err := models.FindSubscription(r.db.WithContext(ctx), localID, connectionID, models.SubscriptionOutbound)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, notFound("get_subscription", "no subscription for item %d on connection %d", localID, connectionID)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return subscriptionFromModel(s), nil
}

// EnsureSubscription stores an outbound subscription unless one exists for
// the pair.
func (r *Repository) EnsureSubscription(ctx context.Context, s *syndication.Subscription) (bool, error) {
	m := &models.Subscription{
		LocalID:      s.LocalID,
		ConnectionID: s.ConnectionID,
		Direction:    models.SubscriptionOutbound,
		RemotePostID: s.RemotePostID,
		Signature:    s.Signature,
		TargetURL:    s.TargetURL,
		CreatedAt:    s.CreatedAt,
	}
	created, err := m.CreateIfAbsent(r.db.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to create subscription: %w", err)
	}
	return created, nil
}

// ListSubscriptions returns the outbound subscriptions of a local item.
func (r *Repository) ListSubscriptions(ctx context.Context, localID int64) ([]syndication.Subscription, error) {
	subs, err := models.FindSubscriptionsByLocalID(r.db.WithContext(ctx), localID, models.SubscriptionOutbound)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	out := make([]syndication.Subscription, 0, len(subs))
	for i := range subs {
		out = append(out, *subscriptionFromModel(&subs[i]))
	}
	return out, nil
}

// SaveInboundSubscription records that the local copy localID receives
// updates from the origin at s.TargetURL.
func (r *Repository) SaveInboundSubscription(ctx context.Context, s *syndication.Subscription) (bool, error) {
	m := &models.Subscription{
		LocalID:      s.LocalID,
		Direction:    models.SubscriptionInbound,
		RemotePostID: s.RemotePostID,
		Signature:    s.Signature,
		TargetURL:    s.TargetURL,
	}
	created, err := m.CreateIfAbsent(r.db.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("failed to create inbound subscription: %w", err)
	}
	return created, nil
}

// InboundSubscription returns the inbound subscription of a local copy
// matching signature.
func (r *Repository) InboundSubscription(ctx context.Context, localID int64, signature string) (*syndication.Subscription, error) {
	s, err := models.FindInboundSubscription(r.db.WithContext(ctx), localID, signature)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, notFound("inbound_subscription", "no subscription for item %d with that signature", localID)
		}
		return nil, fmt.Errorf("failed to get inbound subscription: %w", err)
	}
	return subscriptionFromModel(s), nil
}
