package mcp

import (
	"encoding/json"
	"net/http"
)

// SessionHeader is the case-insensitively matched session header name; Go's
// http.Header canonicalizes header names so a direct Get/Set already
// behaves case-insensitively.
const SessionHeader = "Mcp-Session-Id"

// BuiltinHandler implements the built-in variant's minimum protocol:
// initialize, tools/list, tools/call over POST; GET for an SSE keep-alive;
// DELETE to tear a session down (§4.7).
type BuiltinHandler struct {
	sessions *SessionStore
	tools    *ToolRegistry
}

// NewBuiltinHandler builds a built-in-variant handler.
func NewBuiltinHandler(sessions *SessionStore, tools *ToolRegistry) *BuiltinHandler {
	return &BuiltinHandler{sessions: sessions, tools: tools}
}

func (h *BuiltinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleKeepAlive(w, r)
	case http.MethodDelete:
		h.handleTeardown(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *BuiltinHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, rpcErr(nil, -32700, "parse error"))
		return
	}

	if req.Method == "initialize" {
		sess := h.sessions.Create("")
		w.Header().Set(SessionHeader, sess.ID)
		writeJSON(w, http.StatusOK, ok(req.ID, map[string]any{
			"protocolVersion": sess.ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
		}))
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if _, ok := h.sessions.Touch(sessionID); !ok {
		writeJSON(w, http.StatusConflict, rpcErr(req.ID, -32000, "session_unknown"))
		return
	}

	switch req.Method {
	case "tools/list":
		writeJSON(w, http.StatusOK, ok(req.ID, map[string]any{"tools": toolDescriptors()}))

	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(w, http.StatusBadRequest, rpcErr(req.ID, -32602, "invalid params"))
			return
		}
		result := h.tools.Call(r.Context(), params)
		writeJSON(w, http.StatusOK, ok(req.ID, result))

	default:
		writeJSON(w, http.StatusOK, rpcErr(req.ID, -32601, "method not found"))
	}
}

// handleKeepAlive serves an SSE keep-alive stream for an already
// initialized session; an unknown session is rejected rather than
// silently minted (§4.7 supplemented behavior).
func (h *BuiltinHandler) handleKeepAlive(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if _, ok := h.sessions.Touch(sessionID); !ok {
		writeJSON(w, http.StatusConflict, rpcErr(nil, -32000, "session_unknown"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		return
	}
	_, _ = w.Write([]byte(": keep-alive\n\n"))
	flusher.Flush()

	<-r.Context().Done()
}

func (h *BuiltinHandler) handleTeardown(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	h.sessions.Destroy(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func toolDescriptors() []map[string]any {
	out := make([]map[string]any, 0, len(toolPrompts))
	for name := range toolPrompts {
		out = append(out, map[string]any{"name": name})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
