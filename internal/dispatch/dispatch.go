// Package dispatch implements the provider-selection state machine that
// splits Anthropic-compatible requests between the zai passthrough
// provider and the Google-backed account pool (§4.3).
package dispatch

import (
	"sync/atomic"

	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/rpay/antigravity-gateway/internal/gwerrors"
)

// Decision is the dispatcher's outcome.
type Decision string

const (
	DecisionPassthrough Decision = "passthrough"
	DecisionPool        Decision = "pool"
)

// PoolProbe reports the account pool's current size, without naming a
// specific model (the dispatcher decides passthrough-vs-pool before model
// resolution runs).
type PoolProbe interface {
	// HasSelectableAccount reports whether at least one account is in the
	// in-memory pool.
	HasSelectableAccount() bool
	// EligibleCount is the pool's current account count N, used to size
	// the pooled dispatch's 1/(N+1) passthrough slot.
	EligibleCount() int
}

// Dispatcher holds the process-global pooled-dispatch counter.
type Dispatcher struct {
	counter uint64
}

// New builds a Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// Eligible reports zai passthrough eligibility: enabled, non-empty
// base_url, non-empty api_key (§4.3).
func Eligible(z config.Zai) bool {
	return z.Enabled && z.BaseURL != "" && z.APIKey != ""
}

// Decide implements the decision table of §4.3. count_tokens uses the same
// decision so fallback/pooled stay consistent across both entry points.
func (d *Dispatcher) Decide(mode config.DispatchMode, eligible bool, pool PoolProbe) (Decision, error) {
	hasPool := pool != nil && pool.HasSelectableAccount()

	switch mode {
	case config.DispatchOff, "":
		return DecisionPool, nil

	case config.DispatchExclusive:
		if eligible {
			return DecisionPassthrough, nil
		}
		return "", gwerrors.New(gwerrors.KindConfigInvalid,
			"dispatch_mode is exclusive but the passthrough provider is not eligible")

	case config.DispatchFallback:
		if !eligible {
			return DecisionPool, nil
		}
		if hasPool {
			return DecisionPool, nil
		}
		return DecisionPassthrough, nil

	case config.DispatchPooled:
		if !eligible {
			return DecisionPool, nil
		}
		n := 0
		if pool != nil {
			n = pool.EligibleCount()
		}
		return d.decidePooled(n), nil

	default:
		return DecisionPool, nil
	}
}

// decidePooled advances the process-global counter monotonically under an
// atomic and assigns slot 0 to passthrough, slots 1..N to pool, where N is
// the pool's current account count — giving the stated 1/(N+1) long-run
// passthrough ratio (§8 testable properties). When N is 0 every slot is 0,
// so the request goes to passthrough. Decide checks passthrough
// eligibility before calling this, so an ineligible passthrough sends the
// request to pool without advancing the counter (§9 open question (a)).
func (d *Dispatcher) decidePooled(n int) Decision {
	slot := atomic.AddUint64(&d.counter, 1) % uint64(n+1)
	if slot == 0 {
		return DecisionPassthrough
	}
	return DecisionPool
}
