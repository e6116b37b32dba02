package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/rpay/antigravity-gateway/internal/accountpool"
	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/rpay/antigravity-gateway/internal/gwerrors"
	"github.com/rpay/antigravity-gateway/internal/ratelimit"
)

// Request is the routing engine's input, already parsed from the incoming
// protocol surface.
type Request struct {
	Surface    Surface
	Model      string
	Thinking   bool
	SessionKey string
}

// Resolution is the outcome of a successful routing pass: the candidate
// model actually served and the account that served it.
type Resolution struct {
	Model   string
	Account *accountpool.Account
}

// Upstream performs one attempt against the resolved account for model and
// reports the failure reason on error, or nil on success. Implemented by
// the transform pipeline / passthrough client; injected so the engine
// itself never speaks HTTP.
type Upstream interface {
	Attempt(ctx context.Context, account *accountpool.Account, model string) error
}

// FailureReason classifies an Upstream.Attempt error for rate-limit
// bookkeeping and fallback decisions.
type FailureReason string

const (
	FailureQuotaExhausted    FailureReason = "quota_exhausted"
	FailureRateLimitExceeded FailureReason = "rate_limit_exceeded"
	FailureServerError       FailureReason = "server_error"
	FailureAccountRevoked    FailureReason = "account_revoked"
	FailureOther             FailureReason = "other"
)

// Classifiable is implemented by errors that carry a known failure reason;
// unclassified errors abort the fallback loop immediately.
type Classifiable interface {
	error
	FailureReason() FailureReason
}

// Engine resolves a request's candidate chain and drives the fallback loop
// across accounts and candidates (§4.4 "Fallback loop").
type Engine struct {
	pool    *accountpool.Pool
	tracker *ratelimit.Tracker
}

// NewEngine builds a routing engine over an account pool and rate-limit
// tracker.
func NewEngine(pool *accountpool.Pool, tracker *ratelimit.Tracker) *Engine {
	return &Engine{pool: pool, tracker: tracker}
}

// Resolve runs model resolution, expands the candidate chain, and drives
// the fallback loop via upstream, returning the first candidate served
// successfully or the exhaustion error of §7.
func (e *Engine) Resolve(ctx context.Context, req Request, mapping config.Mapping, upstream Upstream) (*Resolution, error) {
	target := ResolveTarget(req.Surface, req.Model, mapping)
	chain := BuildCandidateChain(target, req.Thinking)

	thinkingActive := req.Thinking
	for _, candidate := range chain {
		effectiveCandidate := candidate
		if thinkingActive && !SupportsThinking(candidate) {
			thinkingActive = false
		}

		for {
			account, ok := e.pool.Select(effectiveCandidate, req.SessionKey)
			if !ok {
				break // no eligible account for this candidate; advance the chain
			}

			err := upstream.Attempt(ctx, account, effectiveCandidate)
			if err == nil {
				return &Resolution{Model: effectiveCandidate, Account: account}, nil
			}

			reason := FailureOther
			if c, ok := err.(Classifiable); ok {
				reason = c.FailureReason()
			}
			if reason == FailureOther {
				return nil, fmt.Errorf("upstream attempt failed: %w", err)
			}

			// A revoked account is already removed from the pool by
			// Pool.AccessToken; no cooldown entry is needed, just move on.
			if reason != FailureAccountRevoked {
				e.tracker.Record(account.ID, effectiveCandidate, trackerReason(reason), time.Time{})
			}
			// retry the same candidate with another eligible account;
			// the loop continues until Select finds none left.
		}
	}

	return nil, gwerrors.New(gwerrors.KindQuotaExhausted, gwerrors.ExhaustedMessage(req.Model))
}

func trackerReason(r FailureReason) ratelimit.Reason {
	switch r {
	case FailureQuotaExhausted:
		return ratelimit.ReasonQuotaExhausted
	case FailureRateLimitExceeded:
		return ratelimit.ReasonRateLimitExceeded
	case FailureServerError:
		return ratelimit.ReasonServerError
	default:
		return ratelimit.ReasonUnknown
	}
}
