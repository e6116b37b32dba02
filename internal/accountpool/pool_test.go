package accountpool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAccount(t *testing.T, dir string, a Account) {
	t.Helper()
	b, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, a.ID+".json"), b, 0o644))
}

func TestSelectSkipsDisabledAndZeroQuota(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, Account{
		ID: "a0", Email: "a0@example.com", Disabled: true,
		QuotaData: Quota{Models: []ModelQuota{{Name: "claude-opus-4-5-thinking", Percentage: 90}}},
	})
	writeAccount(t, dir, Account{
		ID: "a1", Email: "a1@example.com",
		QuotaData: Quota{Models: []ModelQuota{{Name: "claude-opus-4-5-thinking", Percentage: 0}}},
	})
	writeAccount(t, dir, Account{
		ID: "a2", Email: "a2@example.com",
		QuotaData: Quota{Models: []ModelQuota{{Name: "claude-opus-4-5-thinking", Percentage: 80}}},
	})

	p, err := New(dir, nil, nil)
	require.NoError(t, err)

	got, ok := p.Select("claude-opus-4-5-thinking", "")
	require.True(t, ok)
	assert.Equal(t, "a2", got.ID)
}

func TestSelectExcludesUnknownQuota(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, Account{ID: "a1", Email: "a1@example.com"})

	p, err := New(dir, nil, nil)
	require.NoError(t, err)

	_, ok := p.Select("claude-opus-4-5-thinking", "")
	assert.False(t, ok)
}

func TestStickyBindingOverridesRoundRobin(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, Account{
		ID: "a1", Email: "a1@example.com",
		QuotaData: Quota{Models: []ModelQuota{{Name: "gemini-3-pro-high", Percentage: 90}}},
	})
	writeAccount(t, dir, Account{
		ID: "a2", Email: "a2@example.com",
		QuotaData: Quota{Models: []ModelQuota{{Name: "gemini-3-pro-high", Percentage: 90}}},
	})

	p, err := New(dir, nil, nil)
	require.NoError(t, err)

	first, ok := p.Select("gemini-3-pro-high", "session-1")
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		again, ok := p.Select("gemini-3-pro-high", "session-1")
		require.True(t, ok)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestDisableRemovesFromPool(t *testing.T) {
	dir := t.TempDir()
	writeAccount(t, dir, Account{
		ID: "a1", Email: "a1@example.com",
		QuotaData: Quota{Models: []ModelQuota{{Name: "gemini-3-pro-high", Percentage: 90}}},
	})

	p, err := New(dir, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, p.Size())

	acc := p.Snapshot()[0]
	require.NoError(t, p.Disable(context.Background(), acc, "invalid_grant"))
	assert.Equal(t, 0, p.Size())

	_, ok := p.Select("gemini-3-pro-high", "")
	assert.False(t, ok)
}

func TestMaskedEmail(t *testing.T) {
	a := &Account{Email: "longname@example.com"}
	assert.Equal(t, "long....com", a.MaskedEmail())

	short := &Account{Email: "ab@x"}
	assert.Equal(t, "***", short.MaskedEmail())
}
