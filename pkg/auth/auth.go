// Package auth provides the request signers attached to connections and the
// matching verification used by the receiving API.
package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Supported auth methods.
const (
	MethodBasic    = "basic"
	MethodToken    = "token"
	MethodJWT      = "jwt"
	MethodOAuth2   = "oauth2"
	MethodInternal = "internal"
)

// Config selects and configures an auth handler.
//
// Example configuration (HCL):
//
//	auth {
//	  method   = "basic"
//	  username = "editor"
//	  password = env("TARGET_PASSWORD")
//	}
type Config struct {
	Method string `hcl:"method"`

	Username string `hcl:"username,optional"`
	Password string `hcl:"password,optional"`

	Token string `hcl:"token,optional"`

	// JWT signing.
	Secret   string `hcl:"secret,optional"`
	Issuer   string `hcl:"issuer,optional"`
	Audience string `hcl:"audience,optional"`
	TTL      string `hcl:"ttl,optional"`

	// OAuth2 client credentials.
	ClientID     string   `hcl:"client_id,optional"`
	ClientSecret string   `hcl:"client_secret,optional"`
	TokenURL     string   `hcl:"token_url,optional"`
	Scopes       []string `hcl:"scopes,optional"`
}

// Validate checks the fields required by the selected method.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Method, validation.Required,
			validation.In(MethodBasic, MethodToken, MethodJWT, MethodOAuth2, MethodInternal)),
		validation.Field(&c.Username, validation.When(c.Method == MethodBasic, validation.Required)),
		validation.Field(&c.Token, validation.When(c.Method == MethodToken, validation.Required)),
		validation.Field(&c.Secret, validation.When(c.Method == MethodJWT, validation.Required, validation.Length(16, 0))),
		validation.Field(&c.TTL, validation.By(durationRule)),
		validation.Field(&c.ClientID, validation.When(c.Method == MethodOAuth2, validation.Required)),
		validation.Field(&c.ClientSecret, validation.When(c.Method == MethodOAuth2, validation.Required)),
		validation.Field(&c.TokenURL, validation.When(c.Method == MethodOAuth2, validation.Required, is.URL)),
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

// New builds the handler selected by cfg.
func New(cfg Config) (syndication.AuthHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}

	switch cfg.Method {
	case MethodBasic:
		return NewBasic(cfg.Username, cfg.Password), nil
	case MethodToken:
		return NewToken(cfg.Token), nil
	case MethodJWT:
		ttl := 5 * time.Minute
		if cfg.TTL != "" {
			ttl, _ = time.ParseDuration(cfg.TTL)
		}
		return NewJWT(JWTConfig{
			Secret:   []byte(cfg.Secret),
			Issuer:   cfg.Issuer,
			Audience: cfg.Audience,
			TTL:      ttl,
		}), nil
	case MethodOAuth2:
		return NewOAuth2(context.Background(), cfg.ClientID, cfg.ClientSecret, cfg.TokenURL, cfg.Scopes), nil
	default:
		return Internal{}, nil
	}
}

// Basic signs requests with HTTP basic credentials.
type Basic struct {
	header string
}

// NewBasic creates a basic auth handler.
func NewBasic(username, password string) *Basic {
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return &Basic{header: "Basic " + creds}
}

func (b *Basic) Method() string { return MethodBasic }

func (b *Basic) Authorize(_ context.Context, req *syndication.Request) error {
	req.Header.Set("Authorization", b.header)
	return nil
}

// Token signs requests with a static bearer token.
type Token struct {
	token string
}

// NewToken creates a bearer token handler.
func NewToken(token string) *Token {
	return &Token{token: token}
}

func (t *Token) Method() string { return MethodToken }

func (t *Token) Authorize(_ context.Context, req *syndication.Request) error {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return nil
}

// Internal is used by same-process connections and adds nothing.
type Internal struct{}

func (Internal) Method() string { return MethodInternal }

func (Internal) Authorize(context.Context, *syndication.Request) error { return nil }

var (
	_ syndication.AuthHandler = (*Basic)(nil)
	_ syndication.AuthHandler = (*Token)(nil)
	_ syndication.AuthHandler = (*JWT)(nil)
	_ syndication.AuthHandler = (*OAuth2)(nil)
	_ syndication.AuthHandler = Internal{}
)
