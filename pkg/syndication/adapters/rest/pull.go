package rest

import (
	"context"
	"fmt"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Pull imports each referenced remote item into the local repository. Items
// are processed independently and the report follows the order of refs.
func (c *Connection) Pull(ctx context.Context, refs []syndication.ItemReference) syndication.PullReport {
	ctx, release := c.deps.Hooks.Suspend(ctx, syndication.HookContentSaved)
	defer release()

	report := make(syndication.PullReport, 0, len(refs))
	for _, ref := range refs {
		outcome := c.pullOne(ctx, ref)
		if outcome.Err != nil {
			c.logger.Warn("pull failed", "remote_post_id", ref.RemotePostID, "post_type", ref.PostType, "error", outcome.Err)
		}
		report = append(report, outcome)
	}
	return report
}

func (c *Connection) pullOne(ctx context.Context, ref syndication.ItemReference) syndication.PullOutcome {
	outcome := syndication.PullOutcome{Ref: ref, Status: syndication.PullFailed}

	if err := ctx.Err(); err != nil {
		outcome.Err = syndication.WrapError(syndication.KindNetwork, "pull", err)
		return outcome
	}

	remote, supported, err := c.fetch(ctx, ref)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	linkage, err := c.deps.Linkage.PulledLinkage(ctx, c.conn.ID, ref.RemotePostID)
	if err != nil && !syndication.IsNotFound(err) {
		outcome.Err = fmt.Errorf("failed to resolve linkage: %w", err)
		return outcome
	}
	if linkage != nil && linkage.Unlinked {
		outcome.Status = syndication.PullSkipped
		outcome.LocalID = linkage.LocalID
		return outcome
	}

	item := remote.Clone()
	item.ID = 0
	item.Meta = nil
	item.Terms = nil
	item.Media = nil

	status := syndication.PullCreated
	if linkage != nil {
		item.ID = linkage.LocalID
		status = syndication.PullUpdated
	}

	localID, err := c.deps.Repository.Save(ctx, item)
	if err != nil && linkage != nil && syndication.IsNotFound(err) {
		// the linked copy was deleted locally
		item.ID = 0
		status = syndication.PullCreated
		localID, err = c.deps.Repository.Save(ctx, item)
	}
	if err != nil {
		outcome.Err = fmt.Errorf("failed to save item: %w", err)
		return outcome
	}
	outcome.LocalID = localID

	// Link before importing so a failed import is retried as an update of
	// this copy.
	now := c.now()
	err = c.deps.Linkage.SaveLinkage(ctx, &syndication.Linkage{
		LocalID:      localID,
		ConnectionID: c.conn.ID,
		RemotePostID: ref.RemotePostID,
		RemoteURL:    remote.Link,
		Direction:    syndication.DirectionPulled,
		SyncedAt:     now,
	})
	if err != nil {
		outcome.Err = fmt.Errorf("failed to record linkage: %w", err)
		return outcome
	}

	if supported {
		if err := c.deps.Preparer.Import(ctx, localID, remote); err != nil {
			outcome.Err = err
			return outcome
		}
	} else {
		c.logger.Debug("remote does not speak the protocol, skipping meta, terms and media", "local_id", localID)
	}

	err = c.deps.Preparer.RecordOrigin(ctx, localID, syndication.Origin{
		ConnectionID: c.conn.ID,
		RemotePostID: ref.RemotePostID,
		RemoteURL:    remote.Link,
		PulledAt:     now,
	})
	if err != nil {
		outcome.Err = fmt.Errorf("failed to record origin: %w", err)
		return outcome
	}

	outcome.Status = status
	c.logger.Info("pulled item", "remote_post_id", ref.RemotePostID, "local_id", localID, "status", status)
	return outcome
}
