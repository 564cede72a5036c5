// Package preparer converts stored items to syndication.Content and applies
// incoming Content back onto stored items.
package preparer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Store is the subset of a repository the preparer needs.
type Store interface {
	Get(ctx context.Context, id int64) (*syndication.Content, error)
	SetMeta(ctx context.Context, id int64, meta map[string][]string, preserve func(key string) bool) error
	SetTerms(ctx context.Context, id int64, terms map[string][]syndication.TermRef) error
	SetMedia(ctx context.Context, id int64, media []syndication.MediaRef) error
}

// DefaultExcludedMeta lists meta keys that describe local bookkeeping and
// never travel with an item.
var DefaultExcludedMeta = []string{
	syndication.MetaOriginalPostID,
	syndication.MetaOriginalPostURL,
	syndication.MetaOriginalSourceID,
	syndication.MetaSyndicateTime,
	syndication.MetaUnlinked,
	syndication.MetaSubscriptionSig,
	syndication.MetaConnectionMap,
	syndication.MetaOriginalSiteName,
	syndication.MetaOriginalSiteURL,
	"_edit_lock",
	"_edit_last",
	"_wp_old_slug",
	"_wp_old_date",
	"_wp_attached_file",
	"_wp_attachment_metadata",
}

// Preparer is the default syndication.ContentPreparer.
type Preparer struct {
	store    Store
	excluded map[string]bool
	logger   hclog.Logger
}

var _ syndication.ContentPreparer = (*Preparer)(nil)

// Option configures a Preparer.
type Option func(*Preparer)

// WithExcludedMeta adds keys to the excluded set.
func WithExcludedMeta(keys ...string) Option {
	return func(p *Preparer) {
		for _, k := range keys {
			p.excluded[k] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(p *Preparer) {
		p.logger = logger
	}
}

// New creates a Preparer over store.
func New(store Store, opts ...Option) *Preparer {
	p := &Preparer{
		store:    store,
		excluded: make(map[string]bool, len(DefaultExcludedMeta)),
		logger:   hclog.NewNullLogger(),
	}
	for _, k := range DefaultExcludedMeta {
		p.excluded[k] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Excluded reports whether key is kept out of exported and imported meta.
func (p *Preparer) Excluded(key string) bool {
	return p.excluded[key]
}

// Export loads the item and strips excluded meta.
func (p *Preparer) Export(ctx context.Context, localID int64) (*syndication.Content, error) {
	c, err := p.store.Get(ctx, localID)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("item %d is incomplete: %w", localID, err)
	}

	c.Meta = p.filterMeta(c.Meta)
	c.Terms = normalizeTerms(c.Terms)
	return c, nil
}

// Import replaces the distributable meta, terms and media of a local item.
// Each part is applied even if another fails; failures are aggregated.
func (p *Preparer) Import(ctx context.Context, localID int64, c *syndication.Content) error {
	var result *multierror.Error

	if err := p.store.SetMeta(ctx, localID, p.filterMeta(c.Meta), p.Excluded); err != nil {
		result = multierror.Append(result, fmt.Errorf("meta: %w", err))
	}

	if err := p.store.SetTerms(ctx, localID, normalizeTerms(c.Terms)); err != nil {
		result = multierror.Append(result, fmt.Errorf("terms: %w", err))
	}

	media := make([]syndication.MediaRef, 0, len(c.Media))
	for i, m := range c.Media {
		if m.SourceURL == "" {
			result = multierror.Append(result, fmt.Errorf("media %d: source_url is required", i))
			continue
		}
		if m.Meta == nil {
			m.Meta = map[string][]string{}
		}
		m.Meta[syndication.MetaOriginalMediaURL] = []string{m.SourceURL}
		media = append(media, m)
	}
	if err := p.store.SetMedia(ctx, localID, media); err != nil {
		result = multierror.Append(result, fmt.Errorf("media: %w", err))
	}

	if err := result.ErrorOrNil(); err != nil {
		p.logger.Warn("partial import", "local_id", localID, "error", err)
		return fmt.Errorf("failed to import item %d: %w", localID, err)
	}
	return nil
}

// RecordOrigin writes the origin meta keys and keeps all other meta.
func (p *Preparer) RecordOrigin(ctx context.Context, localID int64, origin syndication.Origin) error {
	pulledAt := origin.PulledAt
	if pulledAt.IsZero() {
		pulledAt = time.Now()
	}
	meta := map[string][]string{
		syndication.MetaOriginalPostID:   {strconv.FormatInt(origin.RemotePostID, 10)},
		syndication.MetaOriginalPostURL:  {origin.RemoteURL},
		syndication.MetaOriginalSourceID: {strconv.FormatInt(origin.ConnectionID, 10)},
		syndication.MetaSyndicateTime:    {strconv.FormatInt(pulledAt.Unix(), 10)},
	}
	keepAll := func(string) bool { return true }
	if err := p.store.SetMeta(ctx, localID, meta, keepAll); err != nil {
		return fmt.Errorf("failed to record origin of item %d: %w", localID, err)
	}
	return nil
}

func (p *Preparer) filterMeta(meta map[string][]string) map[string][]string {
	out := make(map[string][]string, len(meta))
	for k, v := range meta {
		if p.excluded[k] {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

// normalizeTerms fills missing slugs from term names and drops refs with
// neither.
func normalizeTerms(terms map[string][]syndication.TermRef) map[string][]syndication.TermRef {
	out := make(map[string][]syndication.TermRef, len(terms))
	for taxonomy, refs := range terms {
		for _, ref := range refs {
			if ref.Slug == "" {
				ref.Slug = Slugify(ref.Name)
			}
			if ref.Slug == "" {
				continue
			}
			out[taxonomy] = append(out[taxonomy], ref)
		}
	}
	return out
}

// Slugify turns a display name into a slug: "Breaking News" becomes
// "breaking-news".
func Slugify(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return !(r == ' ' || r == '-' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'))
	})
	return strcase.ToKebab(strings.Join(fields, " "))
}
