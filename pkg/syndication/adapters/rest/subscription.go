package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// ensureSubscription makes sure a subscription exists for the pair and
// reports whether one does afterwards. An existing subscription is never
// registered again. A failed registration leaves no record so the next push
// retries it.
func (c *Connection) ensureSubscription(ctx context.Context, localID, remoteID int64) (bool, error) {
	_, err := c.deps.Subscriptions.GetSubscription(ctx, localID, c.conn.ID)
	if err == nil {
		return true, nil
	}
	if !syndication.IsNotFound(err) {
		return false, fmt.Errorf("failed to look up subscription: %w", err)
	}

	sub := &syndication.Subscription{
		LocalID:      localID,
		ConnectionID: c.conn.ID,
		RemotePostID: remoteID,
		Signature:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		TargetURL:    c.cfg.SiteURL,
		CreatedAt:    c.now(),
	}

	if err := c.registerSubscription(ctx, sub); err != nil {
		c.logger.Warn("subscription registration failed", "local_id", localID, "remote_post_id", remoteID, "error", err)
		return false, nil
	}

	created, err := c.deps.Subscriptions.EnsureSubscription(ctx, sub)
	if err != nil {
		return false, fmt.Errorf("failed to store subscription: %w", err)
	}
	if created {
		c.logger.Info("created subscription", "local_id", localID, "remote_post_id", remoteID)
	}
	return true, nil
}

func (c *Connection) registerSubscription(ctx context.Context, sub *syndication.Subscription) error {
	body, err := json.Marshal(subscriptions.ReceiveRequest{
		PostID:       sub.RemotePostID,
		RemotePostID: sub.LocalID,
		Signature:    sub.Signature,
		TargetURL:    sub.TargetURL,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	target := c.base + "/" + strings.Trim(c.cfg.SubscriptionPath, "/") + "/receive"
	resp, err := c.send(ctx, http.MethodPost, target, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return classify("subscribe", resp)
	}
	return nil
}
