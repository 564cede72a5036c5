package syndication

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Hook names fired by repositories.
const (
	HookContentSaved = "content.saved"
)

// HookFunc reacts to a local event on an item.
type HookFunc func(ctx context.Context, localID int64) error

// Hooks is a registry of side-effecting callbacks that syndication can
// suspend while it writes local items itself. Suspension travels with a
// context, so only writes made under the suspended context are silenced.
type Hooks struct {
	mu       sync.Mutex
	handlers map[string][]HookFunc
	log      hclog.Logger
}

// suspension is one Suspend call. Scopes chain through parent so nested
// guards compose.
type suspension struct {
	hooks    *Hooks
	names    map[string]bool
	released atomic.Bool
	parent   *suspension
}

type suspensionKey struct{}

// NewHooks creates an empty registry.
func NewHooks(log hclog.Logger) *Hooks {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Hooks{
		handlers: make(map[string][]HookFunc),
		log:      log,
	}
}

// On registers fn for the named hook.
func (h *Hooks) On(name string, fn HookFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], fn)
}

// Suspend returns a context under which the named hooks of h do not fire.
// The suspension ends when release is called, also for contexts derived from
// the returned one. Release is idempotent.
func (h *Hooks) Suspend(ctx context.Context, names ...string) (context.Context, func()) {
	s := &suspension{hooks: h, names: make(map[string]bool, len(names))}
	for _, n := range names {
		s.names[n] = true
	}
	s.parent, _ = ctx.Value(suspensionKey{}).(*suspension)
	return context.WithValue(ctx, suspensionKey{}, s), func() { s.released.Store(true) }
}

// Suspended reports whether the named hook is suspended for ctx.
func (h *Hooks) Suspended(ctx context.Context, name string) bool {
	if ctx == nil {
		return false
	}
	s, _ := ctx.Value(suspensionKey{}).(*suspension)
	for ; s != nil; s = s.parent {
		if s.hooks == h && s.names[name] && !s.released.Load() {
			return true
		}
	}
	return false
}

// Fire runs the handlers of the named hook unless ctx suspends it. Handler
// errors are logged and do not stop the remaining handlers.
func (h *Hooks) Fire(ctx context.Context, name string, localID int64) {
	if h.Suspended(ctx, name) {
		h.log.Trace("hook suspended", "hook", name, "local_id", localID)
		return
	}

	h.mu.Lock()
	handlers := append([]HookFunc(nil), h.handlers[name]...)
	h.mu.Unlock()

	for _, fn := range handlers {
		if err := fn(ctx, localID); err != nil {
			h.log.Warn("hook failed", "hook", name, "local_id", localID, "error", err)
		}
	}
}
