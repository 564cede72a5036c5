package base

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/distributor/internal/config"
	"github.com/hashicorp-forge/distributor/internal/connections"
	"github.com/hashicorp-forge/distributor/pkg/database"
	"github.com/hashicorp-forge/distributor/pkg/preparer"
	"github.com/hashicorp-forge/distributor/pkg/repository"
	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
	"github.com/hashicorp-forge/distributor/pkg/transport"
)

// ConfigEnvVar names the config file when -config is not given.
const ConfigEnvVar = "DISTRIBUTOR_CONFIG"

// Env is the runtime a command works against.
type Env struct {
	Config      *config.Config
	DB          *gorm.DB
	Repository  *repository.Repository
	Preparer    *preparer.Preparer
	Connections *connections.Registry
	Notifier    *subscriptions.Notifier
	Log         hclog.Logger
}

// FS is the filesystem configuration is read from.
var FS afero.Fs = afero.NewOsFs()

// ConfigPath resolves the config file from the flag, the environment and
// the default name, in that order.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(ConfigEnvVar); v != "" {
		return v
	}
	return config.DefaultConfigFile
}

// LoadConfig reads the config and reconfigures the command logger from its
// log block.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(FS, ConfigPath(path))
	if err != nil {
		return nil, err
	}
	c.Log = hclog.New(&hclog.LoggerOptions{
		Name:       c.Log.Name(),
		Level:      hclog.LevelFromString(cfg.Log.Level),
		JSONFormat: cfg.Log.JSON,
	})
	return cfg, nil
}

// Open loads the config and builds the local repository, the configured
// connections and the subscription notifier. Close the Env when done.
func (c *Command) Open(ctx context.Context, configPath string) (*Env, error) {
	cfg, err := c.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	db, err := database.Connect(cfg.Database.DatabaseConfig(), c.Log)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	env := &Env{Config: cfg, DB: db, Log: c.Log}

	env.Repository = repository.New(db, nil, c.Log)
	if err := env.Repository.EnsureDefaultTypes(ctx); err != nil {
		env.Close()
		return nil, fmt.Errorf("error registering default types: %w", err)
	}
	env.Preparer = preparer.New(env.Repository, preparer.WithLogger(c.Log))

	env.Connections, err = connections.New(ctx, cfg, connections.Local{
		Repository: env.Repository,
		Preparer:   env.Preparer,
	}, c.Log)
	if err != nil {
		env.Close()
		return nil, err
	}

	client, err := transport.New(nil, c.Log)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Notifier = subscriptions.NewNotifier(env.Repository, env.Preparer, env.Connections, client, c.Log)
	env.Notifier.Register(env.Repository.Hooks())
	return env, nil
}

// Close releases the connections and the database.
func (e *Env) Close() {
	if e.Connections != nil {
		if err := e.Connections.Close(); err != nil {
			e.Log.Warn("error closing connections", "error", err)
		}
	}
	if e.DB != nil {
		if sqlDB, err := e.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
