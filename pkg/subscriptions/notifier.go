package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Resolver finds the connection a subscription was made on.
type Resolver interface {
	Connection(id int64) (syndication.Connection, bool)
}

// DeliveryError is the failure to update one subscribed copy.
type DeliveryError struct {
	ConnectionID int64
	RemotePostID int64
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("connection %d, remote item %d: %v", e.ConnectionID, e.RemotePostID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Notifier sends updates of subscribed items.
type Notifier struct {
	store    syndication.SubscriptionStore
	preparer syndication.ContentPreparer
	resolver Resolver
	client   syndication.RemoteAPIClient
	logger   hclog.Logger
}

// NewNotifier creates a Notifier. logger may be nil.
func NewNotifier(store syndication.SubscriptionStore, preparer syndication.ContentPreparer, resolver Resolver, client syndication.RemoteAPIClient, logger hclog.Logger) *Notifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Notifier{
		store:    store,
		preparer: preparer,
		resolver: resolver,
		client:   client,
		logger:   logger.Named("notifier"),
	}
}

// Register subscribes the notifier to content.saved.
func (n *Notifier) Register(hooks *syndication.Hooks) {
	hooks.On(syndication.HookContentSaved, n.Notify)
}

// Notify sends the current state of localID to every subscribed copy. Every
// subscription is attempted; failures are returned together.
func (n *Notifier) Notify(ctx context.Context, localID int64) error {
	subs, err := n.store.ListSubscriptions(ctx, localID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	content, err := n.preparer.Export(ctx, localID)
	if err != nil {
		return fmt.Errorf("failed to export item %d: %w", localID, err)
	}
	data := PostDataFromContent(content)

	var result *multierror.Error
	for _, sub := range subs {
		if err := n.deliver(ctx, sub, data); err != nil {
			result = multierror.Append(result, &DeliveryError{
				ConnectionID: sub.ConnectionID,
				RemotePostID: sub.RemotePostID,
				Err:          err,
			})
			continue
		}
		n.logger.Debug("sent update", "local_id", localID, "connection_id", sub.ConnectionID, "remote_post_id", sub.RemotePostID)
	}

	if err := result.ErrorOrNil(); err != nil {
		n.logger.Warn("some updates failed", "local_id", localID, "error", err)
		return err
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, sub syndication.Subscription, data PostData) error {
	conn, ok := n.resolver.Connection(sub.ConnectionID)
	if !ok {
		return syndication.NewError(syndication.KindNotFound, "notify", "connection is not configured")
	}

	body, err := json.Marshal(UpdateRequest{
		PostID:    sub.RemotePostID,
		Signature: sub.Signature,
		PostData:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	req := syndication.NewRequest(http.MethodPost, strings.TrimRight(conn.BaseURL, "/")+"/"+UpdatePath, body)
	if conn.Auth != nil {
		if err := conn.Auth.Authorize(ctx, req); err != nil {
			return syndication.WrapError(syndication.KindUnauthorized, "notify", err)
		}
	}

	resp, err := n.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		kind := syndication.KindRemoteRejected
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = syndication.KindUnauthorized
		}
		return &syndication.Error{Kind: kind, Op: "notify", StatusCode: resp.StatusCode, Body: resp.Body,
			Message: "remote rejected update"}
	}
	return nil
}
