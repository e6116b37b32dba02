package accountpool

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimitChecker reports whether an account currently has an active
// rate-limit entry for a candidate model. Implemented by
// internal/ratelimit.Tracker; declared here as a narrow interface so the
// pool holds no reference back to the tracker type (resolves the Account
// Pool ↔ Rate-Limit Tracker cyclic reference by keying on opaque id, per
// the design notes).
type RateLimitChecker interface {
	Active(accountID, candidate string) bool
}

// Pool holds every known account in memory and serves availability-aware
// round-robin selection across them.
type Pool struct {
	dir string

	mu       sync.Mutex
	accounts []*Account
	rrIndex  int

	refresh refreshGroup
	tokens  TokenSource
	limiter RateLimitChecker

	sticky *stickyStore
}

// New loads every accounts/*.json file under dir.
func New(dir string, tokens TokenSource, limiter RateLimitChecker) (*Pool, error) {
	accs, err := loadAccountsDir(dir)
	if err != nil {
		return nil, err
	}
	var live []*Account
	for _, a := range accs {
		if !a.Disabled {
			live = append(live, a)
		}
	}
	return &Pool{
		dir:      dir,
		accounts: live,
		tokens:   tokens,
		limiter:  limiter,
		sticky:   newStickyStore(),
	}, nil
}

// Size returns the number of accounts currently in the in-memory pool
// (disabled accounts are removed, not merely flagged).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts)
}

// HasSelectableAccount implements dispatch.PoolProbe.
func (p *Pool) HasSelectableAccount() bool {
	return p.Size() > 0
}

// EligibleCount implements dispatch.PoolProbe: the pool's current account
// count, used to size the pooled dispatch's 1/(N+1) passthrough slot.
func (p *Pool) EligibleCount() int {
	return p.Size()
}

// Snapshot returns a copy of the account list for diagnostics; the Account
// pointers themselves are shared, so callers must not mutate them.
func (p *Pool) Snapshot() []*Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Account, len(p.accounts))
	copy(out, p.accounts)
	return out
}

// AccountProbe is one account's side-effect-free diagnostic row
// (implements diagnostics.AccountSummary's shape without importing the
// diagnostics package here).
type AccountProbe struct {
	ID          string
	MaskedEmail string
	Disabled    bool
	KnownQuota  bool
	Models      []string
}

// Probe returns a diagnostic summary of every in-memory account without
// making any upstream call (§4.9).
func (p *Pool) Probe() []AccountProbe {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AccountProbe, 0, len(p.accounts))
	for _, a := range p.accounts {
		a.mu.Lock()
		models := make([]string, len(a.QuotaData.Models))
		for i, m := range a.QuotaData.Models {
			models[i] = m.Name
		}
		out = append(out, AccountProbe{
			ID:          a.ID,
			MaskedEmail: a.MaskedEmail(),
			Disabled:    a.Disabled,
			KnownQuota:  a.QuotaData.known(),
			Models:      models,
		})
		a.mu.Unlock()
	}
	return out
}

// eligible reports whether a can serve candidate right now (§4.4 Account
// selection / Glossary "Eligible account").
func (p *Pool) eligible(a *Account, candidate string) bool {
	a.mu.Lock()
	disabled := a.Disabled
	known := a.QuotaData.known()
	pct, hasPct := a.QuotaData.percentFor(candidate)
	a.mu.Unlock()

	if disabled || !known || !hasPct || pct <= 0 {
		return false
	}
	if p.limiter != nil && p.limiter.Active(a.ID, candidate) {
		return false
	}
	return true
}

// Select picks an eligible account for candidate, honoring a sticky
// binding when one is present and still eligible, otherwise an
// availability-aware round robin. sessionKey is the client-supplied
// sticky session identifier, or "" for the anonymous 60s reuse window.
func (p *Pool) Select(candidate, sessionKey string) (*Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if bound, ok := p.sticky.lookup(sessionKey); ok {
		for _, a := range p.accounts {
			if a.ID == bound && p.eligible(a, candidate) {
				return a, true
			}
		}
		p.sticky.unbind(sessionKey)
	}

	n := len(p.accounts)
	if n == 0 {
		return nil, false
	}

	// Two passes: first above the low-quota threshold, then any eligible
	// account at all, so low-quota accounts are deprioritized until they
	// are the only choice (§4.4).
	if a, ok := p.roundRobinPick(candidate, true); ok {
		p.sticky.bind(sessionKey, a.ID)
		return a, true
	}
	if a, ok := p.roundRobinPick(candidate, false); ok {
		p.sticky.bind(sessionKey, a.ID)
		return a, true
	}
	return nil, false
}

// roundRobinPick walks the account list starting from rrIndex. When
// aboveThreshold is true only accounts with quota strictly above
// lowQuotaThreshold qualify. Must be called holding p.mu.
func (p *Pool) roundRobinPick(candidate string, aboveThreshold bool) (*Account, bool) {
	n := len(p.accounts)
	for i := 0; i < n; i++ {
		idx := (p.rrIndex + i) % n
		a := p.accounts[idx]
		if !p.eligible(a, candidate) {
			continue
		}
		pct, _ := a.QuotaData.percentFor(candidate)
		if aboveThreshold && pct <= lowQuotaThreshold {
			continue
		}
		p.rrIndex = (idx + 1) % n
		return a, true
	}
	return nil, false
}

// Disable removes a from the in-memory pool and marks it disabled on disk,
// called on the first observation of invalid_grant during token refresh.
func (p *Pool) Disable(ctx context.Context, a *Account, reason string) error {
	if err := a.disable(reason); err != nil {
		return fmt.Errorf("persisting disable for account %s: %w", a.ID, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, acc := range p.accounts {
		if acc.ID == a.ID {
			p.accounts = append(p.accounts[:i], p.accounts[i+1:]...)
			break
		}
	}
	return nil
}

// AccessToken returns a usable access token for a, refreshing through the
// pool's TokenSource when necessary. A refresh that fails with
// ErrInvalidGrant disables the account before returning the error.
func (p *Pool) AccessToken(ctx context.Context, a *Account) (string, error) {
	tok, err := p.refresh.ensureAccessToken(ctx, a, p.tokens)
	if err != nil {
		if isInvalidGrant(err) {
			_ = p.Disable(ctx, a, "invalid_grant")
		}
		return "", err
	}
	return tok, nil
}

func isInvalidGrant(err error) bool {
	for e := err; e != nil; e = unwrap(e) {
		if e == ErrInvalidGrant {
			return true
		}
	}
	return false
}

func unwrap(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}

// UnknownQuotaAccounts returns accounts quarantined for lacking a quota
// snapshot (§4.4 "Unknown-quota accounts are quarantined").
func (p *Pool) UnknownQuotaAccounts() []*Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Account
	for _, a := range p.accounts {
		a.mu.Lock()
		known := a.QuotaData.known()
		last := a.QuotaLastAttemptAt
		a.mu.Unlock()
		if !known && time.Since(last) >= time.Minute {
			out = append(out, a)
		}
	}
	return out
}
