package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a request carries no acceptable
// credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier checks inbound requests against the credentials the receiving
// API accepts. A zero Verifier rejects everything.
type Verifier struct {
	Tokens    []string
	Users     map[string]string
	JWTSecret []byte
	Audience  string
}

// Enabled reports whether any credential is configured.
func (v *Verifier) Enabled() bool {
	return len(v.Tokens) > 0 || len(v.Users) > 0 || len(v.JWTSecret) > 0
}

// Verify authenticates r.
func (v *Verifier) Verify(r *http.Request) error {
	if user, pass, ok := r.BasicAuth(); ok {
		want, found := v.Users[user]
		if found && subtle.ConstantTimeCompare([]byte(want), []byte(pass)) == 1 {
			return nil
		}
		return ErrUnauthenticated
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ErrUnauthenticated
	}
	token := strings.TrimPrefix(header, "Bearer ")

	for _, t := range v.Tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return nil
		}
	}

	if len(v.JWTSecret) > 0 {
		if _, err := ParseJWT(token, v.JWTSecret, v.Audience); err == nil {
			return nil
		}
	}
	return ErrUnauthenticated
}
