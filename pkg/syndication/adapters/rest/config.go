package rest

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config contains configuration for a REST connection.
type Config struct {
	// SiteName and SiteURL identify this repository to remotes. SiteURL is
	// the API base remotes call back for subscription updates.
	SiteName string
	SiteURL  string

	// TypesPath is the types index relative to the connection's base URL.
	// Default: "types"
	TypesPath string

	// SubscriptionPath is where remotes accept subscription registrations.
	// Default: "dt_subscription"
	SubscriptionPath string

	// CacheTTL bounds how long discovered routes are reused.
	// Default: 15 minutes
	CacheTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TypesPath:        "types",
		SubscriptionPath: "dt_subscription",
		CacheTTL:         15 * time.Minute,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TypesPath == "" {
		c.TypesPath = d.TypesPath
	}
	if c.SubscriptionPath == "" {
		c.SubscriptionPath = d.SubscriptionPath
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = d.CacheTTL
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SiteURL, is.URL),
		validation.Field(&c.CacheTTL, validation.Min(time.Duration(0))),
	)
}
