package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpay/antigravity-gateway/internal/accountpool"
	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/rpay/antigravity-gateway/internal/dispatch"
	"github.com/rpay/antigravity-gateway/internal/ratelimit"
	"github.com/rpay/antigravity-gateway/internal/routing"
	"github.com/rpay/antigravity-gateway/internal/transform"
)

type fakePipeline struct {
	body []byte
	err  error
}

func (f *fakePipeline) Generate(ctx context.Context, accessToken, model string, req transform.AnthropicRequestFields, thinkingEnabled bool) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func writeAccount(t *testing.T, dir, id string, models map[string]float64) {
	t.Helper()
	var quota []accountpool.ModelQuota
	for name, pct := range models {
		quota = append(quota, accountpool.ModelQuota{Name: name, Percentage: pct})
	}
	a := accountpool.Account{
		ID:          id,
		Email:       id + "@example.com",
		AccessToken: "cached-token",
		ExpiresAt:   time.Now().Add(24 * time.Hour),
		QuotaData:   accountpool.Quota{Models: quota},
	}
	b, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), b, 0o644))
}

// newTestGateway lets a test seed gui_config.json before the store loads
// it, since Store has no in-process setter (it is driven by the watched
// file, per the hot-reload design).
func newTestGateway(t *testing.T, pipeline transform.Pipeline, cfgOverride func(*config.Config)) *Gateway {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gui_config.json")

	cfg := config.Defaults()
	if cfgOverride != nil {
		cfgOverride(cfg)
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, b, 0o644))

	store, err := config.NewStore(cfgPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	accountsDir := filepath.Join(dir, "accounts")
	require.NoError(t, os.MkdirAll(accountsDir, 0o755))
	writeAccount(t, accountsDir, "acc-1", map[string]float64{"gemini-3-pro-high": 90, "gemini-3-flash": 90})

	tracker := ratelimit.NewTracker()
	t.Cleanup(tracker.Stop)

	pool, err := accountpool.New(accountsDir, nil, tracker)
	require.NoError(t, err)

	engine := routing.NewEngine(pool, tracker)
	return New(store, pool, tracker, engine, dispatch.New(), pipeline)
}

func TestHandleMessagesServesFromPoolWithAttribution(t *testing.T) {
	pipeline := &fakePipeline{body: []byte(`{"type":"message","content":[]}`)}
	gw := newTestGateway(t, pipeline, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-haiku-4-5","max_tokens":512}`))
	rec := httptest.NewRecorder()
	gw.HandleMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "google", rec.Header().Get("x-antigravity-provider"))
	assert.NotEmpty(t, rec.Header().Get("x-antigravity-account"))
	assert.Equal(t, `{"type":"message","content":[]}`, rec.Body.String())
}

func TestHandleMessagesReturnsAnthropicErrorOnExhaustion(t *testing.T) {
	pipeline := &fakePipeline{err: &fakeStatusErr{code: 429}}
	gw := newTestGateway(t, pipeline, nil)

	// The Opus+thinking chain reaches gemini-3-pro-high and gemini-3-flash,
	// the only models the single seeded account has quota for; the upstream
	// answers 429 for both, each failure cools the account down for that
	// candidate, and the fallback loop exhausts the chain.
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-opus-4-5","thinking":{"type":"enabled"}}`))
	rec := httptest.NewRecorder()
	gw.HandleMessages(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "overloaded_error", errObj["type"])
}

func TestHandleMessagesPassthroughWhenExclusive(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "zai-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"message"}`))
	}))
	defer upstream.Close()

	gw := newTestGateway(t, &fakePipeline{}, func(c *config.Config) {
		c.Zai.Enabled = true
		c.Zai.BaseURL = upstream.URL
		c.Zai.APIKey = "zai-key"
		c.Zai.DispatchMode = config.DispatchExclusive
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"model":"claude-opus-4-5"}`))
	rec := httptest.NewRecorder()
	gw.HandleMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zai", rec.Header().Get("x-antigravity-provider"))
	assert.Empty(t, rec.Header().Get("x-antigravity-account"))
}
