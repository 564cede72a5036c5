package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// JWTConfig configures a JWT handler.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// JWT signs each request with a fresh short-lived HS256 token.
type JWT struct {
	cfg JWTConfig
	now func() time.Time
}

// NewJWT creates a JWT handler.
func NewJWT(cfg JWTConfig) *JWT {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &JWT{cfg: cfg, now: time.Now}
}

func (j *JWT) Method() string { return MethodJWT }

func (j *JWT) Authorize(_ context.Context, req *syndication.Request) error {
	now := j.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    j.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.cfg.TTL)),
	}
	if j.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{j.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.cfg.Secret)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}

// ParseJWT validates a token signed by a JWT handler with the same secret.
func ParseJWT(token string, secret []byte, audience string) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
