package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// OAuth2 signs requests with an access token obtained through the client
// credentials grant. Tokens are cached and refreshed when they expire.
type OAuth2 struct {
	source oauth2.TokenSource
}

// NewOAuth2 creates a client credentials handler. ctx governs token fetches.
func NewOAuth2(ctx context.Context, clientID, clientSecret, tokenURL string, scopes []string) *OAuth2 {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return &OAuth2{source: oauth2.ReuseTokenSource(nil, cfg.TokenSource(ctx))}
}

func (o *OAuth2) Method() string { return MethodOAuth2 }

func (o *OAuth2) Authorize(_ context.Context, req *syndication.Request) error {
	tok, err := o.source.Token()
	if err != nil {
		return syndication.WrapError(syndication.KindUnauthorized, "oauth2", fmt.Errorf("failed to obtain token: %w", err))
	}
	req.Header.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	return nil
}
