package syndication

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Content is the storage-independent representation of a content item.
type Content struct {
	ID       int64     `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Excerpt  string    `json:"excerpt"`
	Slug     string    `json:"slug"`
	Status   string    `json:"status"`
	Author   string    `json:"author"`
	ParentID int64     `json:"parent,omitempty"`
	Link     string    `json:"link,omitempty"`
	Date     time.Time `json:"date,omitempty"`
	Modified time.Time `json:"modified,omitempty"`

	Meta  map[string][]string  `json:"meta"`
	Terms map[string][]TermRef `json:"terms"`
	Media []MediaRef           `json:"media"`
}

// Validate checks the fields every producer of Content must populate.
func (c *Content) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required),
		validation.Field(&c.Status, validation.Required),
	)
}

// Clone returns a deep copy of the content.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	out := *c
	if c.Meta != nil {
		out.Meta = make(map[string][]string, len(c.Meta))
		for k, v := range c.Meta {
			out.Meta[k] = append([]string(nil), v...)
		}
	}
	if c.Terms != nil {
		out.Terms = make(map[string][]TermRef, len(c.Terms))
		for k, v := range c.Terms {
			out.Terms[k] = append([]TermRef(nil), v...)
		}
	}
	if c.Media != nil {
		out.Media = make([]MediaRef, len(c.Media))
		for i, m := range c.Media {
			out.Media[i] = m
			if m.Meta != nil {
				out.Media[i].Meta = make(map[string][]string, len(m.Meta))
				for k, v := range m.Meta {
					out.Media[i].Meta[k] = append([]string(nil), v...)
				}
			}
		}
	}
	return &out
}

// TermRef references a taxonomy term by slug. Slugs are the identity used
// across repositories; IDs are only meaningful to the repository that
// produced them.
type TermRef struct {
	ID         int64  `json:"term_id,omitempty"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ParentSlug string `json:"parent,omitempty"`
}

// MediaRef references a media attachment by source URL.
type MediaRef struct {
	ID        int64               `json:"id,omitempty"`
	SourceURL string              `json:"source_url"`
	Title     string              `json:"title,omitempty"`
	Caption   string              `json:"caption,omitempty"`
	AltText   string              `json:"alt_text,omitempty"`
	MimeType  string              `json:"mime_type,omitempty"`
	Featured  bool                `json:"featured,omitempty"`
	Meta      map[string][]string `json:"meta,omitempty"`
}

// ItemReference identifies a remote content item.
type ItemReference struct {
	RemotePostID int64  `json:"remote_post_id"`
	PostType     string `json:"post_type"`
}

// PushOptions adjusts a single push.
type PushOptions struct {
	// PostType overrides the remote post type. Defaults to the local type.
	PostType string

	// RemoteParentID maps the item under an existing remote parent.
	RemoteParentID int64

	// Status overrides the pushed status, e.g. "draft".
	Status string
}

// PushResult describes the remote copy produced by a successful push.
type PushResult struct {
	RemotePostID int64  `json:"remote_post_id"`
	RemoteURL    string `json:"remote_url"`

	// Linked reports that the remote understands the protocol and a
	// Subscription exists for the pushed item on this connection.
	Linked bool `json:"linked"`
}

// PullStatus is the result class of a single pulled item.
type PullStatus int

const (
	PullFailed PullStatus = iota
	PullCreated
	PullUpdated
	PullSkipped
)

func (s PullStatus) String() string {
	switch s {
	case PullCreated:
		return "created"
	case PullUpdated:
		return "updated"
	case PullSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// PullOutcome is the result of pulling one ItemReference.
type PullOutcome struct {
	Ref     ItemReference
	Status  PullStatus
	LocalID int64
	Err     error
}

// PullReport holds one outcome per requested item, in request order.
type PullReport []PullOutcome

// Failed returns the outcomes whose status is PullFailed.
func (r PullReport) Failed() []PullOutcome {
	var out []PullOutcome
	for _, o := range r {
		if o.Status == PullFailed {
			out = append(out, o)
		}
	}
	return out
}

// Health error keys reported in ConnectionHealth.Errors.
const (
	HealthNoDistributor        = "no_distributor"
	HealthUnauthorized         = "unauthorized"
	HealthNoExternalConnection = "no_external_connection"
)

// ConnectionHealth is the result of probing a remote endpoint.
type ConnectionHealth struct {
	Reachable bool            `json:"reachable"`
	Errors    map[string]bool `json:"errors"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Has reports whether the given error key is set.
func (h ConnectionHealth) Has(key string) bool {
	return h.Errors[key]
}

// Subscription records that a remote copy of a local item is kept in sync.
type Subscription struct {
	LocalID      int64     `json:"local_id"`
	ConnectionID int64     `json:"connection_id"`
	RemotePostID int64     `json:"remote_post_id"`
	Signature    string    `json:"signature"`
	TargetURL    string    `json:"target_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Direction of a linkage between a local and a remote item.
type Direction string

const (
	DirectionPushed Direction = "pushed"
	DirectionPulled Direction = "pulled"
)

// Linkage maps a local item to its counterpart on a connection.
type Linkage struct {
	LocalID      int64
	ConnectionID int64
	RemotePostID int64
	RemoteURL    string
	Direction    Direction

	// Unlinked copies are no longer overwritten by later pulls.
	Unlinked bool
	SyncedAt time.Time
}

// Origin identifies the remote item a local item was pulled from.
type Origin struct {
	ConnectionID int64
	RemotePostID int64
	RemoteURL    string
	PulledAt     time.Time
}

// TypeInfo describes a locally registered content type.
type TypeInfo struct {
	Name           string
	RestBase       string
	SupportsEditor bool
}
