// Package config loads the HCL configuration of the distributor binary.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/hashicorp-forge/distributor/pkg/auth"
	"github.com/hashicorp-forge/distributor/pkg/database"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Config is the root of the configuration file.
type Config struct {
	// Site identifies this repository to remotes.
	Site *Site `hcl:"site,block"`

	// Log configures the root logger.
	Log *Log `hcl:"log,block"`

	// Database is the local repository.
	Database *Database `hcl:"database,block"`

	// Server configures the receiving API.
	Server *Server `hcl:"server,block"`

	// Connections are the remote repositories items are syndicated with.
	Connections []*Connection `hcl:"connection,block"`
}

// Site identifies this repository.
type Site struct {
	Name string `hcl:"name,optional"`

	// URL is the base of this repository's receiving API. Remotes send
	// subscription updates here.
	URL string `hcl:"url,optional"`
}

// Log configures logging.
type Log struct {
	Level string `hcl:"level,optional"`
	JSON  bool   `hcl:"json,optional"`
}

// Database configures a repository database.
type Database struct {
	Driver       string `hcl:"driver,optional"`
	DSN          string `hcl:"dsn,optional"`
	Host         string `hcl:"host,optional"`
	Port         int    `hcl:"port,optional"`
	User         string `hcl:"user,optional"`
	Password     string `hcl:"password,optional"`
	DBName       string `hcl:"dbname,optional"`
	SSLMode      string `hcl:"sslmode,optional"`
	AutoMigrate  bool   `hcl:"auto_migrate,optional"`
	MaxOpenConns int    `hcl:"max_open_conns,optional"`
	MaxIdleConns int    `hcl:"max_idle_conns,optional"`
}

// Server configures the receiving API.
type Server struct {
	Addr string `hcl:"addr,optional"`

	// Tokens are accepted as bearer tokens.
	Tokens []string `hcl:"tokens,optional"`

	// Users maps basic auth usernames to passwords.
	Users map[string]string `hcl:"users,optional"`

	// JWTSecret verifies HS256 bearer tokens. JWTAudience, when set, must
	// match the token audience.
	JWTSecret   string `hcl:"jwt_secret,optional"`
	JWTAudience string `hcl:"jwt_audience,optional"`
}

// Connection configures one remote repository.
type Connection struct {
	Name      string       `hcl:"name,label"`
	ID        int64        `hcl:"id"`
	Type      string       `hcl:"type,optional"`
	BaseURL   string       `hcl:"base_url,optional"`
	Timeout   string       `hcl:"timeout,optional"`
	Retries   int          `hcl:"retries,optional"`
	TLSVerify *bool        `hcl:"tls_verify,optional"`
	Auth      *auth.Config `hcl:"auth,block"`

	// Database is the target repository of a local connection.
	Database *Database `hcl:"database,block"`
}

// Defaults
const (
	DefaultConfigFile = "distributor.hcl"
	DefaultAddr       = ":8080"
	DefaultLogLevel   = "info"
	DefaultSQLiteDSN  = "distributor.db"
)

// envFunc exposes environment variables to configuration files as env("NAME").
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "name", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{"env": envFunc},
	}
}

// Load reads, decodes, defaults and validates the configuration at path.
func Load(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, src)
}

// Parse decodes src. filename selects the syntax and appears in
// diagnostics.
func Parse(filename string, src []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, src, evalContext(), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site == nil {
		c.Site = &Site{}
	}
	if c.Log == nil {
		c.Log = &Log{}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Database == nil {
		c.Database = &Database{}
	}
	c.Database.applyDefaults()
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	for _, conn := range c.Connections {
		if conn.Type == "" {
			conn.Type = syndication.ConnectionTypeREST
		}
		if conn.Database != nil {
			conn.Database.applyDefaults()
		}
	}
}

func (d *Database) applyDefaults() {
	if d.Driver == "" {
		d.Driver = database.DriverSQLite
	}
	if d.Driver == database.DriverSQLite && d.DSN == "" {
		d.DSN = DefaultSQLiteDSN
	}
	if d.Driver == database.DriverPostgres && d.Port == 0 {
		d.Port = 5432
	}
}

// Validate checks the configuration. Every connection is checked and all
// problems are reported together.
func (c *Config) Validate() error {
	var result *multierror.Error

	err := validation.ValidateStruct(c.Log,
		validation.Field(&c.Log.Level, validation.In("trace", "debug", "info", "warn", "error")),
	)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("log: %w", err))
	}
	if err := c.Site.validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("site: %w", err))
	}
	if err := c.Database.validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("database: %w", err))
	}

	names := make(map[string]bool, len(c.Connections))
	ids := make(map[int64]bool, len(c.Connections))
	for _, conn := range c.Connections {
		if err := conn.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("connection %q: %w", conn.Name, err))
		}
		if conn.Database != nil {
			if err := conn.Database.validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("connection %q: database: %w", conn.Name, err))
			}
		}
		if names[conn.Name] {
			result = multierror.Append(result, fmt.Errorf("connection %q: duplicate name", conn.Name))
		}
		if ids[conn.ID] {
			result = multierror.Append(result, fmt.Errorf("connection %q: duplicate id %d", conn.Name, conn.ID))
		}
		names[conn.Name] = true
		ids[conn.ID] = true
	}
	return result.ErrorOrNil()
}

func (s *Site) validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.URL, is.URL),
	)
}

func (d *Database) validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Driver, validation.Required, validation.In(database.DriverPostgres, database.DriverSQLite)),
		validation.Field(&d.DSN, validation.When(d.Driver == database.DriverSQLite, validation.Required)),
		validation.Field(&d.Host, validation.When(d.Driver == database.DriverPostgres && d.DSN == "", validation.Required)),
		validation.Field(&d.DBName, validation.When(d.Driver == database.DriverPostgres && d.DSN == "", validation.Required)),
	)
}

func (c *Connection) validate() error {
	rest := c.Type == syndication.ConnectionTypeREST
	local := c.Type == syndication.ConnectionTypeLocal
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Type, validation.In(syndication.ConnectionTypeREST, syndication.ConnectionTypeLocal)),
		validation.Field(&c.BaseURL, validation.When(rest, validation.Required, is.URL)),
		validation.Field(&c.Timeout, validation.By(durationRule)),
		validation.Field(&c.Retries, validation.Min(0), validation.Max(10)),
		validation.Field(&c.Auth, validation.When(rest, validation.Required)),
		validation.Field(&c.Database, validation.When(local, validation.Required)),
	)
}

func durationRule(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("must be a duration: %w", err)
	}
	return nil
}

// TimeoutDuration returns the parsed request timeout, zero when unset.
func (c *Connection) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// DatabaseConfig converts the block for database.Connect.
func (d *Database) DatabaseConfig() database.Config {
	return database.Config{
		Driver:       d.Driver,
		DSN:          d.DSN,
		Host:         d.Host,
		Port:         d.Port,
		User:         d.User,
		Password:     d.Password,
		DBName:       d.DBName,
		SSLMode:      d.SSLMode,
		AutoMigrate:  d.AutoMigrate,
		MaxOpenConns: d.MaxOpenConns,
		MaxIdleConns: d.MaxIdleConns,
	}
}

// Connection returns the named connection block.
func (c *Config) Connection(name string) (*Connection, bool) {
	for _, conn := range c.Connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return nil, false
}
