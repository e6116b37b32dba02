// Package ratelimit tracks per-account cooldowns keyed by model and reason,
// the Rate-Limit Tracker component (§3 Rate-Limit Entry, §4.4 Fallback loop).
package ratelimit

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Reason is why a candidate was cooled down for an account.
type Reason string

const (
	ReasonQuotaExhausted    Reason = "quota_exhausted"
	ReasonRateLimitExceeded Reason = "rate_limit_exceeded"
	ReasonServerError       Reason = "server_error"
	ReasonUnknown           Reason = "unknown"
)

// Entry is one ephemeral rate-limit record.
type Entry struct {
	AccountID string
	Model     string
	Reason    Reason
	ResetAt   time.Time
}

type entryKey struct {
	accountID string
	model     string
}

// Tracker is a map keyed by account id + model; entries expire by wall
// clock. It holds no reference to accountpool.Account — only opaque ids —
// resolving the Account Pool ↔ Rate-Limit Tracker cyclic reference.
type Tracker struct {
	mu      sync.RWMutex
	entries map[entryKey]Entry

	sweeper *cron.Cron
}

// defaultCooldown is used when an upstream failure carries no explicit
// retry-after hint.
const defaultCooldown = 60 * time.Second

// NewTracker starts a background sweep that evicts expired entries once a
// minute, mirroring the "retried for quota refresh at most once per
// minute" cadence named for unknown-quota accounts.
func NewTracker() *Tracker {
	t := &Tracker{entries: make(map[entryKey]Entry)}
	t.sweeper = cron.New()
	_, _ = t.sweeper.AddFunc("@every 1m", t.sweep)
	t.sweeper.Start()
	return t
}

// Stop halts the background sweep.
func (t *Tracker) Stop() {
	if t.sweeper != nil {
		t.sweeper.Stop()
	}
}

// Record registers a cooldown for accountID serving model, lasting until
// resetAt (or defaultCooldown from now if resetAt is zero).
func (t *Tracker) Record(accountID, model string, reason Reason, resetAt time.Time) {
	if resetAt.IsZero() {
		resetAt = time.Now().Add(defaultCooldown)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[entryKey{accountID, model}] = Entry{
		AccountID: accountID,
		Model:     model,
		Reason:    reason,
		ResetAt:   resetAt,
	}
}

// Active reports whether accountID currently has a live rate-limit entry
// for model (used as the accountpool.RateLimitChecker interface).
func (t *Tracker) Active(accountID, model string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[entryKey{accountID, model}]
	if !ok {
		return false
	}
	return time.Now().Before(e.ResetAt)
}

func (t *Tracker) sweep() {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, e := range t.entries {
		if now.After(e.ResetAt) {
			delete(t.entries, k)
		}
	}
}
