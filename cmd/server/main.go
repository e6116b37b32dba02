package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpay/antigravity-gateway/internal/accountpool"
	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/rpay/antigravity-gateway/internal/diagnostics"
	"github.com/rpay/antigravity-gateway/internal/dispatch"
	"github.com/rpay/antigravity-gateway/internal/gateway"
	"github.com/rpay/antigravity-gateway/internal/mcp"
	"github.com/rpay/antigravity-gateway/internal/ratelimit"
	"github.com/rpay/antigravity-gateway/internal/router"
	"github.com/rpay/antigravity-gateway/internal/routing"
	"github.com/rpay/antigravity-gateway/internal/transform"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	env, err := config.LoadEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("loading environment")
	}
	logger.Info().Str("data_dir", env.DataDir).Msg("starting gateway")

	if err := os.MkdirAll(env.DataDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("creating data directory")
	}

	accessLogFile, err := os.OpenFile(filepath.Join(env.DataDir, "access.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening access log")
	}
	defer accessLogFile.Close()
	accessLogger := zerolog.New(accessLogFile).With().Timestamp().Logger()

	store, err := config.NewStore(filepath.Join(env.DataDir, "gui_config.json"), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading config store")
	}
	defer store.Close()

	accountsDir := filepath.Join(env.DataDir, "accounts")
	if err := os.MkdirAll(accountsDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("creating accounts directory")
	}

	tracker := ratelimit.NewTracker()
	defer tracker.Stop()

	cfg := store.Snapshot()
	tokens := accountpool.NewGoogleTokenSource(os.Getenv("GATEWAY_OAUTH_CLIENT_ID"), os.Getenv("GATEWAY_OAUTH_CLIENT_SECRET"))
	pool, err := accountpool.New(accountsDir, tokens, tracker)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading account pool")
	}
	logger.Info().Int("accounts", pool.Size()).Msg("account pool loaded")

	engine := routing.NewEngine(pool, tracker)
	dispatcher := dispatch.New()
	pipeline := transform.Unconfigured{}

	gw := gateway.New(store, pool, tracker, engine, dispatcher, pipeline)

	probeAccounts := func() []diagnostics.AccountSummary {
		probes := pool.Probe()
		out := make([]diagnostics.AccountSummary, len(probes))
		for i, p := range probes {
			out[i] = diagnostics.AccountSummary{
				ID:          p.ID,
				MaskedEmail: p.MaskedEmail,
				Disabled:    p.Disabled,
				KnownQuota:  p.KnownQuota,
				Models:      p.Models,
			}
		}
		return out
	}

	reverseProxyMCP := buildReverseProxyHandlers(cfg, env.DataDir)
	builtinMCP := buildBuiltinHandler(cfg)

	r := router.New(router.Deps{
		Store:           store,
		Log:             accessLogger,
		Gateway:         gw,
		BuiltinMCP:      builtinMCP,
		ReverseProxyMCP: reverseProxyMCP,
		ProbeAccounts:   probeAccounts,
	})

	srv := &http.Server{
		Addr:         env.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", env.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server stopped gracefully")
}

// buildReverseProxyHandlers wires the three zai-backed reverse-proxy tool
// endpoints, each forwarding to the zai upstream's matching /mcp/{tool}/mcp
// path with the configured tool api_key_override taking precedence over
// api_key (§4.7).
func buildReverseProxyHandlers(cfg *config.Config, dataDir string) map[mcp.ReverseProxyTool]*mcp.ReverseProxyHandler {
	key := cfg.Zai.APIKey
	if cfg.Zai.APIKeyOverride != "" {
		key = cfg.Zai.APIKeyOverride
	}
	timeout := cfg.Network.ParsedRequestTimeout()

	tools := []mcp.ReverseProxyTool{mcp.ToolWebSearchPrime, mcp.ToolWebReader, mcp.ToolZread}
	out := make(map[mcp.ReverseProxyTool]*mcp.ReverseProxyHandler, len(tools))
	for _, tool := range tools {
		forwarder := mcp.NewHTTPForwarder(cfg.Zai.BaseURL, key, tool, timeout)
		out[tool] = mcp.NewReverseProxyHandler(tool, forwarder)
	}
	return out
}

// buildBuiltinHandler wires the zai-mcp-server vision tool registry.
func buildBuiltinHandler(cfg *config.Config) *mcp.BuiltinHandler {
	key := cfg.Zai.APIKey
	if cfg.Zai.APIKeyOverride != "" {
		key = cfg.Zai.APIKeyOverride
	}
	visionClient := mcp.NewVisionHTTPClient(cfg.Zai.BaseURL, key, cfg.Network.ParsedRequestTimeout())
	// The gateway's auth model has one configured key, not per-key
	// entitlements, so the coding endpoint is always preferred first.
	registry := mcp.NewToolRegistry(visionClient, true)
	sessions := mcp.NewSessionStore()
	return mcp.NewBuiltinHandler(sessions, registry)
}
