// Package local provides an ExternalConnection between two repositories in
// the same process. No requests are made; items move through the stores and
// preparers of both sides directly. The target always speaks the protocol,
// so pushes are always linked.
package local

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Store is everything a side of the connection persists.
type Store interface {
	syndication.LocalRepository
	syndication.TypeRegistry
	syndication.LinkageStore
	syndication.SubscriptionStore
}

// Side is one repository taking part in the connection.
type Side struct {
	Store    Store
	Preparer syndication.ContentPreparer

	// Hooks are suspended while the connection writes to Store. Optional.
	Hooks *syndication.Hooks
}

func (s *Side) validate(name string) error {
	if s.Store == nil || s.Preparer == nil {
		return fmt.Errorf("%s: store and preparer are required", name)
	}
	if s.Hooks == nil {
		s.Hooks = syndication.NewHooks(nil)
	}
	return nil
}

// Connection syndicates between origin, the repository that owns the
// connection, and target.
type Connection struct {
	conn   syndication.Connection
	origin Side
	target Side
	logger hclog.Logger
	now    func() time.Time
}

var _ syndication.ExternalConnection = (*Connection)(nil)

// New creates a local connection. conn.Auth may be nil.
func New(conn syndication.Connection, origin, target Side, logger hclog.Logger) (*Connection, error) {
	if conn.Name == "" {
		return nil, fmt.Errorf("connection name is required")
	}
	if err := origin.validate("origin"); err != nil {
		return nil, err
	}
	if err := target.validate("target"); err != nil {
		return nil, err
	}
	if conn.Type == "" {
		conn.Type = syndication.ConnectionTypeLocal
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Connection{
		conn:   conn,
		origin: origin,
		target: target,
		logger: logger.Named("local").With("connection", conn.Name),
		now:    time.Now,
	}, nil
}

// Info returns the connection this value was built from.
func (c *Connection) Info() syndication.Connection {
	return c.conn
}

func (c *Connection) suspend(ctx context.Context) (context.Context, func()) {
	ctx, releaseOrigin := c.origin.Hooks.Suspend(ctx, syndication.HookContentSaved)
	ctx, releaseTarget := c.target.Hooks.Suspend(ctx, syndication.HookContentSaved)
	return ctx, func() {
		releaseTarget()
		releaseOrigin()
	}
}

func (c *Connection) itemURL(id int64) string {
	base := strings.TrimRight(c.conn.BaseURL, "/")
	if base == "" {
		base = "local://" + c.conn.Name
	}
	return base + "/" + strconv.FormatInt(id, 10)
}

// copyInto saves item into side, updating existingID when it is set and
// still present, then imports meta, terms and media and records origin.
func (c *Connection) copyInto(ctx context.Context, side Side, item *syndication.Content, existingID int64, origin syndication.Origin) (int64, bool, error) {
	core := item.Clone()
	core.ID = existingID
	core.Meta = nil
	core.Terms = nil
	core.Media = nil

	created := existingID == 0
	id, err := side.Store.Save(ctx, core)
	if err != nil && !created && syndication.IsNotFound(err) {
		core.ID = 0
		created = true
		id, err = side.Store.Save(ctx, core)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to save item: %w", err)
	}

	if err := side.Preparer.Import(ctx, id, item); err != nil {
		return id, created, err
	}
	if err := side.Preparer.RecordOrigin(ctx, id, origin); err != nil {
		return id, created, err
	}
	return id, created, nil
}

// Push copies a local item into the target repository.
func (c *Connection) Push(ctx context.Context, localID int64, opts syndication.PushOptions) (*syndication.PushResult, error) {
	const op = "push"

	ctx, release := c.suspend(ctx)
	defer release()

	content, err := c.origin.Preparer.Export(ctx, localID)
	if err != nil {
		if syndication.IsNotFound(err) {
			return nil, syndication.WrapError(syndication.KindNotFound, op, err)
		}
		return nil, fmt.Errorf("failed to export item %d: %w", localID, err)
	}
	if opts.PostType != "" {
		content.Type = opts.PostType
	}
	if opts.Status != "" {
		content.Status = opts.Status
	}
	content.ParentID = opts.RemoteParentID

	var existing int64
	linkage, err := c.origin.Store.PushedLinkage(ctx, localID, c.conn.ID)
	switch {
	case err == nil:
		existing = linkage.RemotePostID
	case !syndication.IsNotFound(err):
		return nil, fmt.Errorf("failed to resolve linkage: %w", err)
	}

	now := c.now()
	remoteID, _, err := c.copyInto(ctx, c.target, content, existing, syndication.Origin{
		ConnectionID: c.conn.ID,
		RemotePostID: localID,
		RemoteURL:    content.Link,
		PulledAt:     now,
	})
	if err != nil {
		if remoteID == 0 {
			return nil, syndication.WrapError(syndication.KindRemoteRejected, op, err)
		}
		c.logger.Warn("partial push", "local_id", localID, "remote_post_id", remoteID, "error", err)
	}

	remoteURL := c.itemURL(remoteID)
	err = c.origin.Store.SaveLinkage(ctx, &syndication.Linkage{
		LocalID:      localID,
		ConnectionID: c.conn.ID,
		RemotePostID: remoteID,
		RemoteURL:    remoteURL,
		Direction:    syndication.DirectionPushed,
		SyncedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record linkage: %w", err)
	}

	_, err = c.origin.Store.EnsureSubscription(ctx, &syndication.Subscription{
		LocalID:      localID,
		ConnectionID: c.conn.ID,
		RemotePostID: remoteID,
		Signature:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		TargetURL:    remoteURL,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store subscription: %w", err)
	}

	c.logger.Info("pushed item", "local_id", localID, "remote_post_id", remoteID)
	return &syndication.PushResult{RemotePostID: remoteID, RemoteURL: remoteURL, Linked: true}, nil
}

// Pull copies target items into the origin repository.
func (c *Connection) Pull(ctx context.Context, refs []syndication.ItemReference) syndication.PullReport {
	ctx, release := c.suspend(ctx)
	defer release()

	report := make(syndication.PullReport, 0, len(refs))
	for _, ref := range refs {
		report = append(report, c.pullOne(ctx, ref))
	}
	return report
}

func (c *Connection) pullOne(ctx context.Context, ref syndication.ItemReference) syndication.PullOutcome {
	outcome := syndication.PullOutcome{Ref: ref, Status: syndication.PullFailed}

	remote, err := c.RemoteGet(ctx, ref)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	var existing int64
	linkage, err := c.origin.Store.PulledLinkage(ctx, c.conn.ID, ref.RemotePostID)
	switch {
	case err == nil && linkage.Unlinked:
		outcome.Status = syndication.PullSkipped
		outcome.LocalID = linkage.LocalID
		return outcome
	case err == nil:
		existing = linkage.LocalID
	case !syndication.IsNotFound(err):
		outcome.Err = fmt.Errorf("failed to resolve linkage: %w", err)
		return outcome
	}

	now := c.now()
	remoteURL := c.itemURL(ref.RemotePostID)
	localID, created, err := c.copyInto(ctx, c.origin, remote, existing, syndication.Origin{
		ConnectionID: c.conn.ID,
		RemotePostID: ref.RemotePostID,
		RemoteURL:    remoteURL,
		PulledAt:     now,
	})
	outcome.LocalID = localID
	if err != nil {
		outcome.Err = err
		return outcome
	}

	err = c.origin.Store.SaveLinkage(ctx, &syndication.Linkage{
		LocalID:      localID,
		ConnectionID: c.conn.ID,
		RemotePostID: ref.RemotePostID,
		RemoteURL:    remoteURL,
		Direction:    syndication.DirectionPulled,
		SyncedAt:     now,
	})
	if err != nil {
		outcome.Err = fmt.Errorf("failed to record linkage: %w", err)
		return outcome
	}

	outcome.Status = syndication.PullUpdated
	if created {
		outcome.Status = syndication.PullCreated
	}
	return outcome
}

// RemoteGet reads an item from the target repository.
func (c *Connection) RemoteGet(ctx context.Context, ref syndication.ItemReference) (*syndication.Content, error) {
	const op = "remote_get"

	postType := ref.PostType
	if postType == "" {
		postType = "post"
	}
	info, err := c.origin.Store.LookupType(ctx, postType)
	if err != nil {
		if syndication.IsNotFound(err) {
			return nil, syndication.WrapError(syndication.KindNotFound, op, err)
		}
		return nil, fmt.Errorf("failed to look up post type: %w", err)
	}
	if !info.SupportsEditor {
		return nil, syndication.NewError(syndication.KindNotFound, op,
			fmt.Sprintf("post type %q is not available for syndication", postType))
	}
	if ref.RemotePostID <= 0 {
		return nil, syndication.NewError(syndication.KindNotFound, op, "no match")
	}

	content, err := c.target.Preparer.Export(ctx, ref.RemotePostID)
	if err != nil {
		if syndication.IsNotFound(err) {
			return nil, syndication.WrapError(syndication.KindNotFound, op, err)
		}
		return nil, err
	}
	return content, nil
}

// CheckConnections always reports a reachable, protocol-aware target.
func (c *Connection) CheckConnections(ctx context.Context) syndication.ConnectionHealth {
	return syndication.ConnectionHealth{
		Reachable: true,
		Errors:    map[string]bool{syndication.HealthNoDistributor: false},
		CheckedAt: c.now(),
	}
}
