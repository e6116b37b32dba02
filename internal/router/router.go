// Package router maps HTTP method+path to protocol handlers (§4.1). It is
// a thin chi.Mux wrapper: every route is registered on one mux, and the
// CORS, access-log and auth middleware apply to all of them in that order.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/rpay/antigravity-gateway/internal/diagnostics"
	"github.com/rpay/antigravity-gateway/internal/gateway"
	"github.com/rpay/antigravity-gateway/internal/mcp"
	gwmiddleware "github.com/rpay/antigravity-gateway/internal/middleware"
)

// Deps collects every collaborator the router wires into handlers.
type Deps struct {
	Store           *config.Store
	Log             zerolog.Logger
	Gateway         *gateway.Gateway
	BuiltinMCP      *mcp.BuiltinHandler
	ReverseProxyMCP map[mcp.ReverseProxyTool]*mcp.ReverseProxyHandler
	ProbeAccounts   func() []diagnostics.AccountSummary
}

// New builds the full route table.
func New(d Deps) *chi.Mux {
	r := chi.NewRouter()

	snapshot := func() *config.Config { return d.Store.Snapshot() }
	auth := gwmiddleware.NewAuth(snapshot)
	accessLog := gwmiddleware.AccessLog(d.Log, snapshot)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(accessLog)
	r.Use(auth.Enforce)

	r.Get("/healthz", diagnostics.Health)
	r.Get("/health", diagnostics.Health)
	r.Get("/test-connection", diagnostics.TestConnection(d.ProbeAccounts))

	r.Post("/v1/messages", d.Gateway.HandleMessages)
	r.Post("/v1/messages/count_tokens", d.Gateway.HandleCountTokens)
	r.Get("/v1/models/claude", d.Gateway.HandleModelsClaude)

	r.Get("/v1beta/models", d.Gateway.HandleModelsGemini)
	r.Get("/v1beta/models/{m}", d.Gateway.HandleModelGet)
	r.Post("/v1beta/models/{m}", d.Gateway.HandleGenerateContent)

	r.Post("/v1/chat/completions", d.Gateway.HandleChatCompletions)
	r.Post("/v1/completions", d.Gateway.HandleChatCompletions)
	r.Post("/v1/responses", d.Gateway.HandleChatCompletions)
	r.Post("/v1/images/generations", d.Gateway.HandleChatCompletions)
	r.Post("/v1/images/edits", d.Gateway.HandleChatCompletions)

	registerMCPRoutes(r, d)

	return r
}

// registerMCPRoutes wires the four tool-call endpoints: three
// reverse-proxy variants and the built-in vision-tool server (§4.7).
func registerMCPRoutes(r *chi.Mux, d Deps) {
	reverseProxyNames := map[string]mcp.ReverseProxyTool{
		"web_search_prime": mcp.ToolWebSearchPrime,
		"web_reader":       mcp.ToolWebReader,
		"zread":            mcp.ToolZread,
	}
	for path, tool := range reverseProxyNames {
		tool := tool
		handler, ok := d.ReverseProxyMCP[tool]
		if !ok {
			continue
		}
		r.HandleFunc("/mcp/"+path+"/mcp", func(w http.ResponseWriter, req *http.Request) {
			cfg := d.Store.Snapshot()
			handler.ServeHTTP(w, req, cfg.Zai.Tools, cfg.Zai.WebReaderURLNormalization)
		})
	}

	if d.BuiltinMCP != nil {
		r.HandleFunc("/mcp/zai-mcp-server/mcp", d.BuiltinMCP.ServeHTTP)
	}
}
