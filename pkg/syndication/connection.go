package syndication

import (
	"context"
	"net/http"
)

// Connection types.
const (
	ConnectionTypeREST  = "rest"
	ConnectionTypeLocal = "local"
)

// Connection is a named, addressable remote endpoint. It is immutable after
// construction; implementations may cache discovery metadata alongside it.
type Connection struct {
	ID      int64
	Name    string
	BaseURL string
	Type    string
	Auth    AuthHandler
}

// ExternalConnection is the capability every connection variant provides.
type ExternalConnection interface {
	// Info returns the connection the implementation was built from.
	Info() Connection

	// Push creates or updates the remote copy of a local item.
	Push(ctx context.Context, localID int64, opts PushOptions) (*PushResult, error)

	// Pull imports remote items. The report always has one outcome per
	// item, in order.
	Pull(ctx context.Context, items []ItemReference) PullReport

	// RemoteGet reads a single remote item.
	RemoteGet(ctx context.Context, ref ItemReference) (*Content, error)

	// CheckConnections inspects the remote. It never fails; every failure is
	// reported inside the returned health.
	CheckConnections(ctx context.Context) ConnectionHealth
}

// Request is a single outbound HTTP request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// NewRequest builds a Request with an initialized header.
func NewRequest(method, url string, body []byte) *Request {
	return &Request{Method: method, URL: url, Header: make(http.Header), Body: body}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AuthHandler signs outbound requests. Handlers are read-only after
// construction and safe for concurrent use.
type AuthHandler interface {
	Method() string
	Authorize(ctx context.Context, req *Request) error
}

// RemoteAPIClient performs one request/response round trip. Transport
// failures are reported as KindNetwork errors; any response, whatever its
// status, is returned without error.
type RemoteAPIClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ContentPreparer converts local items to Content and back.
type ContentPreparer interface {
	// Export returns the local item as Content, or a KindNotFound error.
	Export(ctx context.Context, localID int64) (*Content, error)

	// Import reattaches meta, terms and media from c onto a local item.
	Import(ctx context.Context, localID int64, c *Content) error

	// RecordOrigin stores where a pulled item came from.
	RecordOrigin(ctx context.Context, localID int64, origin Origin) error
}

// LocalRepository stores content items.
type LocalRepository interface {
	Get(ctx context.Context, id int64) (*Content, error)

	// Save inserts c when c.ID is zero and updates it otherwise. It
	// returns the item id.
	Save(ctx context.Context, c *Content) (int64, error)
}

// TypeRegistry answers questions about locally registered content types.
type TypeRegistry interface {
	// LookupType returns a KindNotFound error for unknown types.
	LookupType(ctx context.Context, name string) (*TypeInfo, error)
}

// LinkageStore persists linkage between local and remote items.
type LinkageStore interface {
	// PushedLinkage returns the linkage recorded by a previous push.
	PushedLinkage(ctx context.Context, localID, connectionID int64) (*Linkage, error)

	// PulledLinkage returns the linkage recorded by a previous pull.
	PulledLinkage(ctx context.Context, connectionID, remotePostID int64) (*Linkage, error)

	SaveLinkage(ctx context.Context, l *Linkage) error
}

// SubscriptionStore persists subscriptions keyed by (local item, connection).
type SubscriptionStore interface {
	// GetSubscription returns a KindNotFound error when none exists.
	GetSubscription(ctx context.Context, localID, connectionID int64) (*Subscription, error)

	// EnsureSubscription stores s unless a subscription already exists for
	// its pair, and reports whether it was created.
	EnsureSubscription(ctx context.Context, s *Subscription) (bool, error)

	// ListSubscriptions returns every subscription of a local item.
	ListSubscriptions(ctx context.Context, localID int64) ([]Subscription, error)
}
