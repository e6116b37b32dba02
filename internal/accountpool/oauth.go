package accountpool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// GoogleTokenSource exchanges a refresh token for a fresh access token
// against Google's OAuth2 token endpoint. ClientID/ClientSecret identify
// the desktop OAuth client that originally minted the refresh tokens (the
// interactive device flow that produces them is out of this module's
// scope).
type GoogleTokenSource struct {
	cfg oauth2.Config
}

// NewGoogleTokenSource builds a TokenSource against Google's token
// endpoint for the given OAuth client credentials.
func NewGoogleTokenSource(clientID, clientSecret string) *GoogleTokenSource {
	return &GoogleTokenSource{cfg: oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}}
}

// Exchange implements TokenSource. A token-endpoint "invalid_grant"
// response is surfaced as ErrInvalidGrant so the pool can disable the
// account permanently instead of retrying.
func (g *GoogleTokenSource) Exchange(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := g.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorCode == "invalid_grant" {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("exchanging refresh token: %w", err)
	}
	return tok, nil
}
