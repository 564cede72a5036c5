// Package mock provides in-memory syndication stores for tests.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// FakeRepository keeps items, content types, linkage and subscriptions in
// memory. It implements every store the syndication core depends on.
type FakeRepository struct {
	mu sync.RWMutex

	// Items stores content by local ID
	Items map[int64]*syndication.Content

	// Types stores registered content types by name
	Types map[string]syndication.TypeInfo

	// Linkages stores linkage by direction, connection and ID
	Linkages map[linkageKey]*syndication.Linkage

	// Subscriptions stores outbound subscriptions by (local, connection)
	Subscriptions map[[2]int64]*syndication.Subscription

	// Inbound stores inbound subscriptions by local copy ID
	Inbound map[int64]*syndication.Subscription

	// Hooks fired on Save
	Hooks *syndication.Hooks

	// SaveErr, when set, is returned by Save
	SaveErr error

	nextID  int64
	lastCtx context.Context
}

type linkageKey struct {
	direction    syndication.Direction
	connectionID int64
	id           int64 // local id for pushed, remote id for pulled
}

var (
	_ syndication.LocalRepository   = (*FakeRepository)(nil)
	_ syndication.TypeRegistry      = (*FakeRepository)(nil)
	_ syndication.LinkageStore      = (*FakeRepository)(nil)
	_ syndication.SubscriptionStore = (*FakeRepository)(nil)
)

// NewFakeRepository creates an empty repository with the post and page types
// registered.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		Items: make(map[int64]*syndication.Content),
		Types: map[string]syndication.TypeInfo{
			"post": {Name: "post", RestBase: "posts", SupportsEditor: true},
			"page": {Name: "page", RestBase: "pages", SupportsEditor: true},
		},
		Linkages:      make(map[linkageKey]*syndication.Linkage),
		Subscriptions: make(map[[2]int64]*syndication.Subscription),
		Inbound:       make(map[int64]*syndication.Subscription),
		Hooks:         syndication.NewHooks(nil),
	}
}

func notFound(format string, args ...interface{}) error {
	return syndication.NewError(syndication.KindNotFound, "mock", fmt.Sprintf(format, args...))
}

// Get returns a copy of the stored item.
func (f *FakeRepository) Get(ctx context.Context, id int64) (*syndication.Content, error) {
	f.record(ctx)
	f.mu.RLock()
	defer f.mu.RUnlock()

	c, ok := f.Items[id]
	if !ok {
		return nil, notFound("item %d not found", id)
	}
	return c.Clone(), nil
}

// Save stores a copy of c. Nil meta, terms or media leave the stored value
// untouched.
func (f *FakeRepository) Save(ctx context.Context, c *syndication.Content) (int64, error) {
	if f.SaveErr != nil {
		return 0, f.SaveErr
	}
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("invalid content: %w", err)
	}

	f.mu.Lock()
	stored := c.Clone()
	if stored.ID == 0 {
		f.nextID++
		for f.Items[f.nextID] != nil {
			f.nextID++
		}
		stored.ID = f.nextID
		stored.Date = time.Now()
	} else {
		prev, ok := f.Items[stored.ID]
		if !ok {
			f.mu.Unlock()
			return 0, notFound("item %d not found", stored.ID)
		}
		if stored.Meta == nil {
			stored.Meta = prev.Meta
		}
		if stored.Terms == nil {
			stored.Terms = prev.Terms
		}
		if stored.Media == nil {
			stored.Media = prev.Media
		}
		stored.Date = prev.Date
	}
	stored.Modified = time.Now()
	f.Items[stored.ID] = stored
	f.mu.Unlock()

	f.Hooks.Fire(ctx, syndication.HookContentSaved, stored.ID)
	return stored.ID, nil
}

func (f *FakeRepository) record(ctx context.Context) {
	f.mu.Lock()
	f.lastCtx = ctx
	f.mu.Unlock()
}

// LastContext returns the context of the most recent item or linkage call.
func (f *FakeRepository) LastContext() context.Context {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastCtx
}

// Put stores c under its own ID without firing hooks.
func (f *FakeRepository) Put(c *syndication.Content) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Items[c.ID] = c.Clone()
}

// SetMeta implements preparer.Store.
func (f *FakeRepository) SetMeta(ctx context.Context, id int64, meta map[string][]string, preserve func(string) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.Items[id]
	if !ok {
		return notFound("item %d not found", id)
	}
	next := make(map[string][]string, len(meta))
	for k, v := range c.Meta {
		if preserve != nil && preserve(k) {
			next[k] = v
		}
	}
	for k, v := range meta {
		next[k] = append([]string(nil), v...)
	}
	c.Meta = next
	return nil
}

// SetTerms implements preparer.Store.
func (f *FakeRepository) SetTerms(ctx context.Context, id int64, terms map[string][]syndication.TermRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.Items[id]
	if !ok {
		return notFound("item %d not found", id)
	}
	c.Terms = make(map[string][]syndication.TermRef, len(terms))
	for k, v := range terms {
		c.Terms[k] = append([]syndication.TermRef(nil), v...)
	}
	return nil
}

// SetMedia implements preparer.Store.
func (f *FakeRepository) SetMedia(ctx context.Context, id int64, media []syndication.MediaRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.Items[id]
	if !ok {
		return notFound("item %d not found", id)
	}
	c.Media = append([]syndication.MediaRef(nil), media...)
	return nil
}

// LookupType implements syndication.TypeRegistry.
func (f *FakeRepository) LookupType(ctx context.Context, name string) (*syndication.TypeInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	t, ok := f.Types[name]
	if !ok {
		return nil, notFound("content type %q is not registered", name)
	}
	return &t, nil
}

// PushedLinkage implements syndication.LinkageStore.
func (f *FakeRepository) PushedLinkage(ctx context.Context, localID, connectionID int64) (*syndication.Linkage, error) {
	f.record(ctx)
	return f.linkage(linkageKey{syndication.DirectionPushed, connectionID, localID})
}

// PulledLinkage implements syndication.LinkageStore.
func (f *FakeRepository) PulledLinkage(ctx context.Context, connectionID, remotePostID int64) (*syndication.Linkage, error) {
	f.record(ctx)
	return f.linkage(linkageKey{syndication.DirectionPulled, connectionID, remotePostID})
}

func (f *FakeRepository) linkage(key linkageKey) (*syndication.Linkage, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	l, ok := f.Linkages[key]
	if !ok {
		return nil, notFound("no %s linkage for %d on connection %d", key.direction, key.id, key.connectionID)
	}
	out := *l
	return &out, nil
}

// SaveLinkage implements syndication.LinkageStore.
func (f *FakeRepository) SaveLinkage(ctx context.Context, l *syndication.Linkage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCtx = ctx

	key := linkageKey{l.Direction, l.ConnectionID, l.LocalID}
	if l.Direction == syndication.DirectionPulled {
		key.id = l.RemotePostID
	}
	stored := *l
	f.Linkages[key] = &stored
	return nil
}

// SetUnlinked marks a pulled linkage.
func (f *FakeRepository) SetUnlinked(ctx context.Context, localID, connectionID int64, unlinked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, l := range f.Linkages {
		if key.direction == syndication.DirectionPulled && l.ConnectionID == connectionID && l.LocalID == localID {
			l.Unlinked = unlinked
			return nil
		}
	}
	return notFound("item %d was not pulled from connection %d", localID, connectionID)
}

// GetSubscription implements syndication.SubscriptionStore.
func (f *FakeRepository) GetSubscription(ctx context.Context, localID, connectionID int64) (*syndication.Subscription, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s, ok := f.Subscriptions[[2]int64{localID, connectionID}]
	if !ok {
		return nil, notFound("no subscription for item %d on connection %d", localID, connectionID)
	}
	out := *s
	return &out, nil
}

// EnsureSubscription implements syndication.SubscriptionStore.
func (f *FakeRepository) EnsureSubscription(ctx context.Context, s *syndication.Subscription) (bool, error) {
	if s.Signature == "" {
		return false, fmt.Errorf("signature is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := [2]int64{s.LocalID, s.ConnectionID}
	if _, ok := f.Subscriptions[key]; ok {
		return false, nil
	}
	stored := *s
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	f.Subscriptions[key] = &stored
	return true, nil
}

// ListSubscriptions implements syndication.SubscriptionStore.
func (f *FakeRepository) ListSubscriptions(ctx context.Context, localID int64) ([]syndication.Subscription, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []syndication.Subscription
	for key, s := range f.Subscriptions {
		if key[0] == localID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// SubscriptionCount returns the number of stored subscriptions.
func (f *FakeRepository) SubscriptionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.Subscriptions)
}

// SaveInboundSubscription stores s unless the copy already has one.
func (f *FakeRepository) SaveInboundSubscription(ctx context.Context, s *syndication.Subscription) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.Inbound[s.LocalID]; ok {
		return false, nil
	}
	stored := *s
	f.Inbound[s.LocalID] = &stored
	return true, nil
}

// InboundSubscription returns the inbound subscription of a copy matching
// signature.
func (f *FakeRepository) InboundSubscription(ctx context.Context, localID int64, signature string) (*syndication.Subscription, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s, ok := f.Inbound[localID]
	if !ok || s.Signature != signature {
		return nil, notFound("no subscription for item %d with that signature", localID)
	}
	out := *s
	return &out, nil
}
