package dispatch

import (
	"testing"

	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePool struct {
	n int
}

func (f fakePool) HasSelectableAccount() bool { return f.n > 0 }
func (f fakePool) EligibleCount() int         { return f.n }

func TestDispatchOff(t *testing.T) {
	d := New()
	dec, err := d.Decide(config.DispatchOff, true, fakePool{n: 3})
	require.NoError(t, err)
	assert.Equal(t, DecisionPool, dec)
}

func TestDispatchExclusiveIneligibleErrors(t *testing.T) {
	d := New()
	_, err := d.Decide(config.DispatchExclusive, false, fakePool{n: 0})
	require.Error(t, err)
}

func TestDispatchExclusiveEligible(t *testing.T) {
	d := New()
	dec, err := d.Decide(config.DispatchExclusive, true, fakePool{n: 0})
	require.NoError(t, err)
	assert.Equal(t, DecisionPassthrough, dec)
}

func TestDispatchFallback(t *testing.T) {
	d := New()

	dec, err := d.Decide(config.DispatchFallback, true, fakePool{n: 2})
	require.NoError(t, err)
	assert.Equal(t, DecisionPool, dec)

	dec, err = d.Decide(config.DispatchFallback, true, fakePool{n: 0})
	require.NoError(t, err)
	assert.Equal(t, DecisionPassthrough, dec)

	dec, err = d.Decide(config.DispatchFallback, false, fakePool{n: 0})
	require.NoError(t, err)
	assert.Equal(t, DecisionPool, dec)
}

func TestDispatchPooledRatio(t *testing.T) {
	d := New()
	counts := map[Decision]int{}
	total := 3000
	for i := 0; i < total; i++ {
		dec, err := d.Decide(config.DispatchPooled, true, fakePool{n: 2})
		require.NoError(t, err)
		counts[dec]++
	}
	// N=2 -> passthrough should land on ~1/3 of requests.
	ratio := float64(counts[DecisionPassthrough]) / float64(total)
	assert.InDelta(t, 1.0/3.0, ratio, 0.01)
}
