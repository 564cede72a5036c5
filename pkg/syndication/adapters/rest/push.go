package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Push creates the remote copy of a local item, or updates the copy linked
// by an earlier push. Local save hooks are suspended for writes made by the call.
func (c *Connection) Push(ctx context.Context, localID int64, opts syndication.PushOptions) (*syndication.PushResult, error) {
	const op = "push"

	ctx, release := c.deps.Hooks.Suspend(ctx, syndication.HookContentSaved)
	defer release()

	content, err := c.deps.Preparer.Export(ctx, localID)
	if err != nil {
		if syndication.IsNotFound(err) {
			return nil, syndication.WrapError(syndication.KindNotFound, op, err)
		}
		return nil, fmt.Errorf("failed to export item %d: %w", localID, err)
	}

	postType := opts.PostType
	if postType == "" {
		postType = content.Type
	}

	linkage, err := c.deps.Linkage.PushedLinkage(ctx, localID, c.conn.ID)
	if err != nil && !syndication.IsNotFound(err) {
		return nil, fmt.Errorf("failed to resolve linkage: %w", err)
	}

	body, err := c.encodePush(content, postType, opts)
	if err != nil {
		return nil, err
	}

	target := c.itemsHref(ctx, postType)
	if linkage != nil {
		target = c.itemHref(ctx, postType, linkage.RemotePostID)
	}

	logger := c.logger.With("local_id", localID, "post_type", postType)
	logger.Debug("pushing item", "url", target, "update", linkage != nil)

	resp, err := c.send(ctx, http.MethodPost, target, body)
	if err != nil {
		logger.Warn("push failed", "error", err)
		return nil, err
	}
	if !resp.OK() {
		rejected := classify(op, resp)
		logger.Warn("push rejected", "status", resp.StatusCode, "error", rejected.Message)
		return nil, rejected
	}

	remote, err := decodeItem(resp.Body)
	if err != nil {
		return nil, &syndication.Error{Kind: syndication.KindRemoteRejected, Op: op, Err: err,
			StatusCode: resp.StatusCode, Body: resp.Body}
	}
	remoteID := remote.ID
	if remoteID == 0 && linkage != nil {
		remoteID = linkage.RemotePostID
	}
	if remoteID == 0 {
		return nil, &syndication.Error{Kind: syndication.KindRemoteRejected, Op: op,
			Message: "response did not identify the remote item", StatusCode: resp.StatusCode, Body: resp.Body}
	}

	remoteURL := remote.selfLink()
	if remoteURL == "" {
		remoteURL = c.itemHref(ctx, postType, remoteID)
	}

	err = c.deps.Linkage.SaveLinkage(ctx, &syndication.Linkage{
		LocalID:      localID,
		ConnectionID: c.conn.ID,
		RemotePostID: remoteID,
		RemoteURL:    remoteURL,
		Direction:    syndication.DirectionPushed,
		SyncedAt:     c.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record linkage: %w", err)
	}

	supported := syndication.SupportsProtocol(resp.Header)
	c.recordProtocol(supported)

	result := &syndication.PushResult{RemotePostID: remoteID, RemoteURL: remoteURL}
	if supported {
		linked, err := c.ensureSubscription(ctx, localID, remoteID)
		if err != nil {
			return nil, err
		}
		result.Linked = linked
	}

	logger.Info("pushed item", "remote_post_id", remoteID, "linked", result.Linked)
	return result, nil
}
