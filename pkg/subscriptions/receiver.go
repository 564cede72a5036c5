package subscriptions

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// InboundStore is what a Receiver persists to.
type InboundStore interface {
	syndication.LocalRepository
	SaveInboundSubscription(ctx context.Context, s *syndication.Subscription) (bool, error)
	InboundSubscription(ctx context.Context, localID int64, signature string) (*syndication.Subscription, error)
}

// Receiver accepts subscription registrations and updates from origins.
type Receiver struct {
	store    InboundStore
	preparer syndication.ContentPreparer
	hooks    *syndication.Hooks
	logger   hclog.Logger
}

// NewReceiver creates a Receiver. hooks and logger may be nil.
func NewReceiver(store InboundStore, preparer syndication.ContentPreparer, hooks *syndication.Hooks, logger hclog.Logger) *Receiver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if hooks == nil {
		hooks = syndication.NewHooks(logger)
	}
	return &Receiver{store: store, preparer: preparer, hooks: hooks, logger: logger.Named("receiver")}
}

// Receive records that the local copy req.PostID follows an origin item.
func (r *Receiver) Receive(ctx context.Context, req ReceiveRequest) error {
	const op = "receive"
	if req.PostID <= 0 || req.RemotePostID <= 0 || req.Signature == "" {
		return syndication.NewError(syndication.KindRemoteRejected, op, "post_id, remote_post_id and signature are required")
	}
	if _, err := r.store.Get(ctx, req.PostID); err != nil {
		return err
	}

	created, err := r.store.SaveInboundSubscription(ctx, &syndication.Subscription{
		LocalID:      req.PostID,
		RemotePostID: req.RemotePostID,
		Signature:    req.Signature,
		TargetURL:    req.TargetURL,
	})
	if err != nil {
		return err
	}
	r.logger.Info("subscription received", "local_id", req.PostID, "remote_post_id", req.RemotePostID, "created", created)
	return nil
}

// Update applies an origin's new version to the local copy. Copies that were
// unlinked locally are left alone and reported as not updated.
func (r *Receiver) Update(ctx context.Context, req UpdateRequest) (bool, error) {
	const op = "update"

	if _, err := r.store.InboundSubscription(ctx, req.PostID, req.Signature); err != nil {
		if syndication.IsNotFound(err) {
			return false, syndication.NewError(syndication.KindUnauthorized, op, "no subscription matches the signature")
		}
		return false, err
	}

	current, err := r.store.Get(ctx, req.PostID)
	if err != nil {
		return false, err
	}
	if unlinked := current.Meta[syndication.MetaUnlinked]; len(unlinked) > 0 && unlinked[0] == "1" {
		r.logger.Debug("copy is unlinked, ignoring update", "local_id", req.PostID)
		return false, nil
	}

	ctx, release := r.hooks.Suspend(ctx, syndication.HookContentSaved)
	defer release()

	incoming := req.PostData.ToContent(req.PostID)
	if incoming.Type == "" {
		incoming.Type = current.Type
	}
	if incoming.Status == "" {
		incoming.Status = current.Status
	}

	core := incoming.Clone()
	core.Meta = nil
	core.Terms = nil
	core.Media = nil
	core.Author = current.Author
	core.ParentID = current.ParentID
	if _, err := r.store.Save(ctx, core); err != nil {
		return false, fmt.Errorf("failed to save item %d: %w", req.PostID, err)
	}
	if err := r.preparer.Import(ctx, req.PostID, incoming); err != nil {
		return true, err
	}

	r.logger.Info("applied update", "local_id", req.PostID)
	return true, nil
}
