package rest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Dependencies are the collaborators a Connection delegates to.
type Dependencies struct {
	Client        syndication.RemoteAPIClient
	Preparer      syndication.ContentPreparer
	Repository    syndication.LocalRepository
	Types         syndication.TypeRegistry
	Linkage       syndication.LinkageStore
	Subscriptions syndication.SubscriptionStore

	// Hooks are suspended while the connection writes local items.
	// Optional.
	Hooks *syndication.Hooks
}

func (d Dependencies) validate() error {
	var missing []string
	if d.Client == nil {
		missing = append(missing, "client")
	}
	if d.Preparer == nil {
		missing = append(missing, "preparer")
	}
	if d.Repository == nil {
		missing = append(missing, "repository")
	}
	if d.Types == nil {
		missing = append(missing, "types")
	}
	if d.Linkage == nil {
		missing = append(missing, "linkage")
	}
	if d.Subscriptions == nil {
		missing = append(missing, "subscriptions")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// protocol support as last observed in a response.
const (
	protocolUnknown int32 = iota
	protocolSupported
	protocolUnsupported
)

// Connection implements syndication.ExternalConnection over the REST
// protocol.
type Connection struct {
	conn   syndication.Connection
	base   string
	cfg    *Config
	deps   Dependencies
	routes *ristretto.Cache[string, string]
	logger hclog.Logger
	now    func() time.Time

	protocol atomic.Int32
}

var _ syndication.ExternalConnection = (*Connection)(nil)

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithConfig replaces the default Config.
func WithConfig(cfg *Config) Option {
	return func(c *Connection) {
		c.cfg = cfg
	}
}

// New creates a REST connection.
func New(conn syndication.Connection, deps Dependencies, opts ...Option) (*Connection, error) {
	err := validation.ValidateStruct(&conn,
		validation.Field(&conn.Name, validation.Required),
		validation.Field(&conn.BaseURL, validation.Required, validation.By(httpURL)),
		validation.Field(&conn.Auth, validation.NotNil),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid connection: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if conn.Type == "" {
		conn.Type = syndication.ConnectionTypeREST
	}
	if deps.Hooks == nil {
		deps.Hooks = syndication.NewHooks(nil)
	}

	c := &Connection{
		conn:   conn,
		base:   strings.TrimRight(conn.BaseURL, "/"),
		cfg:    DefaultConfig(),
		deps:   deps,
		logger: hclog.NewNullLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg.applyDefaults()
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rest config: %w", err)
	}
	c.logger = c.logger.Named("rest").With("connection", conn.Name)

	c.routes, err = ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create route cache: %w", err)
	}
	return c, nil
}

func httpURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https scheme, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// Info returns the connection this value was built from.
func (c *Connection) Info() syndication.Connection {
	return c.conn
}

// Close releases the route cache.
func (c *Connection) Close() {
	c.routes.Close()
}

// SupportsProtocol reports what the last response from the remote said about
// protocol support. known is false until a response has been seen.
func (c *Connection) SupportsProtocol() (supported, known bool) {
	switch c.protocol.Load() {
	case protocolSupported:
		return true, true
	case protocolUnsupported:
		return false, true
	default:
		return false, false
	}
}

func (c *Connection) recordProtocol(supported bool) {
	if supported {
		c.protocol.Store(protocolSupported)
	} else {
		c.protocol.Store(protocolUnsupported)
	}
}

// RequireProtocol checks the remote and fails unless it is reachable and
// speaks the syndication protocol.
func (c *Connection) RequireProtocol(ctx context.Context) error {
	health := c.CheckConnections(ctx)
	switch {
	case health.Has(syndication.HealthUnauthorized):
		return syndication.NewError(syndication.KindUnauthorized, "require_protocol", "remote rejected credentials")
	case !health.Reachable:
		return syndication.NewError(syndication.KindNetwork, "require_protocol", "remote is unreachable")
	case health.Has(syndication.HealthNoDistributor):
		return syndication.NewError(syndication.KindProtocolUnsupported, "require_protocol",
			fmt.Sprintf("%s does not advertise the syndication protocol", c.base))
	}
	return nil
}

// send signs and executes one request.
func (c *Connection) send(ctx context.Context, method, target string, body []byte) (*syndication.Response, error) {
	req := syndication.NewRequest(method, target, body)
	if err := c.conn.Auth.Authorize(ctx, req); err != nil {
		if syndication.KindOf(err) != syndication.KindUnknown {
			return nil, err
		}
		return nil, syndication.WrapError(syndication.KindUnauthorized, "authorize", err)
	}

	c.logger.Trace("sending request", "method", method, "url", target)
	return c.deps.Client.Do(ctx, req)
}
