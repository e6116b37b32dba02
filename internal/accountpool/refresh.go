package accountpool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidGrant is returned by TokenSource implementations when the
// refresh token has been revoked upstream. The pool treats this as
// permanent: the account is disabled and removed from the in-memory pool.
var ErrInvalidGrant = errors.New("invalid_grant")

// TokenSource exchanges a refresh token for a fresh access token. The
// production implementation wraps an oauth2.Config against Google's token
// endpoint; tests supply a stub.
type TokenSource interface {
	Exchange(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// refreshGroup serializes concurrent refreshes of the same account so that
// only one refresh is ever in flight per account (§5 ordering guarantees).
type refreshGroup struct {
	sf singleflight.Group
}

// ensureAccessToken returns a valid access token for a, refreshing it via ts
// if the cached token is missing or near expiry. Concurrent callers for the
// same account id await the single in-flight refresh.
func (g *refreshGroup) ensureAccessToken(ctx context.Context, a *Account, ts TokenSource) (string, error) {
	a.mu.Lock()
	if a.accessTokenValid() {
		tok := a.AccessToken
		a.mu.Unlock()
		return tok, nil
	}
	a.mu.Unlock()

	v, err, _ := g.sf.Do(a.ID, func() (any, error) {
		tok, err := ts.Exchange(ctx, a.RefreshToken)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.AccessToken = tok.AccessToken
		a.ExpiresAt = tok.Expiry
		perr := a.persist()
		a.mu.Unlock()
		if perr != nil {
			return nil, fmt.Errorf("persisting refreshed token for %s: %w", a.ID, perr)
		}
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// disable marks the account disabled for reason, persists it, and stamps
// disabled_at. Called on the first observation of invalid_grant.
func (a *Account) disable(reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Disabled {
		return nil
	}
	a.Disabled = true
	a.DisabledAt = time.Now()
	a.DisabledReason = reason
	return a.persist()
}
