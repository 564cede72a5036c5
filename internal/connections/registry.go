// Package connections builds the configured external connections.
package connections

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/distributor/internal/config"
	"github.com/hashicorp-forge/distributor/pkg/auth"
	"github.com/hashicorp-forge/distributor/pkg/database"
	"github.com/hashicorp-forge/distributor/pkg/preparer"
	"github.com/hashicorp-forge/distributor/pkg/repository"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
	"github.com/hashicorp-forge/distributor/pkg/syndication/adapters/local"
	"github.com/hashicorp-forge/distributor/pkg/syndication/adapters/rest"
	"github.com/hashicorp-forge/distributor/pkg/transport"
)

// Local is the repository that owns every connection.
type Local struct {
	Repository *repository.Repository
	Preparer   *preparer.Preparer
}

// Registry holds the configured connections by name and ID.
type Registry struct {
	byName map[string]syndication.ExternalConnection
	byID   map[int64]syndication.ExternalConnection
	dbs    []*gorm.DB
	rest   []*rest.Connection
	logger hclog.Logger
}

// New builds a connection for every connection block in cfg. On error the
// connections built so far are closed.
func New(ctx context.Context, cfg *config.Config, l Local, logger hclog.Logger) (*Registry, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	r := &Registry{
		byName: make(map[string]syndication.ExternalConnection, len(cfg.Connections)),
		byID:   make(map[int64]syndication.ExternalConnection, len(cfg.Connections)),
		logger: logger.Named("connections"),
	}

	for _, c := range cfg.Connections {
		var (
			ec  syndication.ExternalConnection
			err error
		)
		switch c.Type {
		case syndication.ConnectionTypeLocal:
			ec, err = r.buildLocal(ctx, c, l)
		default:
			ec, err = r.buildREST(c, cfg.Site, l)
		}
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("error building connection %q: %w", c.Name, err)
		}
		r.add(ec)
	}
	return r, nil
}

func (r *Registry) add(ec syndication.ExternalConnection) {
	info := ec.Info()
	r.byName[info.Name] = ec
	r.byID[info.ID] = ec
	r.logger.Debug("connection ready", "name", info.Name, "id", info.ID, "type", info.Type)
}

func (r *Registry) buildREST(c *config.Connection, site *config.Site, l Local) (syndication.ExternalConnection, error) {
	handler, err := auth.New(*c.Auth)
	if err != nil {
		return nil, err
	}

	client, err := transport.New(&transport.Config{
		Timeout:   c.TimeoutDuration(),
		TLSVerify: c.TLSVerify,
	}, r.logger)
	if err != nil {
		return nil, err
	}
	var api syndication.RemoteAPIClient = client
	if c.Retries > 0 {
		rc := transport.DefaultRetryConfig()
		rc.MaxRetries = c.Retries
		api = transport.NewRetrying(client, rc, r.logger)
	}

	restCfg := rest.DefaultConfig()
	if site != nil {
		restCfg.SiteName = site.Name
		restCfg.SiteURL = site.URL
	}

	conn, err := rest.New(syndication.Connection{
		ID:      c.ID,
		Name:    c.Name,
		BaseURL: c.BaseURL,
		Type:    syndication.ConnectionTypeREST,
		Auth:    handler,
	}, rest.Dependencies{
		Client:        api,
		Preparer:      l.Preparer,
		Repository:    l.Repository,
		Types:         l.Repository,
		Linkage:       l.Repository,
		Subscriptions: l.Repository,
		Hooks:         l.Repository.Hooks(),
	}, rest.WithLogger(r.logger), rest.WithConfig(restCfg))
	if err != nil {
		return nil, err
	}
	r.rest = append(r.rest, conn)
	return conn, nil
}

func (r *Registry) buildLocal(ctx context.Context, c *config.Connection, l Local) (syndication.ExternalConnection, error) {
	var handler syndication.AuthHandler
	if c.Auth != nil {
		h, err := auth.New(*c.Auth)
		if err != nil {
			return nil, err
		}
		handler = h
	}

	db, err := database.Connect(c.Database.DatabaseConfig(), r.logger)
	if err != nil {
		return nil, err
	}
	r.dbs = append(r.dbs, db)

	target := repository.New(db, nil, r.logger.Named(c.Name))
	if err := target.EnsureDefaultTypes(ctx); err != nil {
		return nil, fmt.Errorf("error registering default types: %w", err)
	}

	return local.New(syndication.Connection{
		ID:      c.ID,
		Name:    c.Name,
		BaseURL: c.BaseURL,
		Type:    syndication.ConnectionTypeLocal,
		Auth:    handler,
	}, local.Side{
		Store:    l.Repository,
		Preparer: l.Preparer,
		Hooks:    l.Repository.Hooks(),
	}, local.Side{
		Store:    target,
		Preparer: preparer.New(target, preparer.WithLogger(r.logger)),
		Hooks:    target.Hooks(),
	}, r.logger)
}

// Get returns the named connection.
func (r *Registry) Get(name string) (syndication.ExternalConnection, error) {
	ec, ok := r.byName[name]
	if !ok {
		return nil, syndication.NewError(syndication.KindNotFound, "connections.Get",
			fmt.Sprintf("no connection named %q", name))
	}
	return ec, nil
}

// Connection returns the connection with the given ID.
func (r *Registry) Connection(id int64) (syndication.Connection, bool) {
	ec, ok := r.byID[id]
	if !ok {
		return syndication.Connection{}, false
	}
	return ec.Info(), true
}

// Names returns the connection names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases route caches and the target databases of local
// connections.
func (r *Registry) Close() error {
	for _, c := range r.rest {
		c.Close()
	}
	var result *multierror.Error
	for _, db := range r.dbs {
		sqlDB, err := db.DB()
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if err := sqlDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.rest = nil
	r.dbs = nil
	return result.ErrorOrNil()
}
