package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rpay/antigravity-gateway/internal/config"
)

// ReverseProxyTool names the three proxied tool endpoints.
type ReverseProxyTool string

const (
	ToolWebSearchPrime ReverseProxyTool = "web_search_prime"
	ToolWebReader      ReverseProxyTool = "web_reader"
	ToolZread          ReverseProxyTool = "zread"
)

// Forwarder performs the upstream HTTP call for the reverse-proxy variant;
// the transport itself is an external collaborator (§1).
type Forwarder interface {
	Forward(r *http.Request, body []byte) (*http.Response, error)
}

// ReverseProxyHandler implements the reverse-proxy variant of §4.7.
type ReverseProxyHandler struct {
	tool      ReverseProxyTool
	forwarder Forwarder
}

// NewReverseProxyHandler builds a handler for one of the three proxied
// tools.
func NewReverseProxyHandler(tool ReverseProxyTool, forwarder Forwarder) *ReverseProxyHandler {
	return &ReverseProxyHandler{tool: tool, forwarder: forwarder}
}

// Gate reports whether this tool is enabled under the current
// configuration: tool.enabled AND tool.<name>_enabled (§4.7).
func Gate(tools config.ZaiTools, tool ReverseProxyTool) bool {
	if !tools.Enabled {
		return false
	}
	switch tool {
	case ToolWebSearchPrime:
		return tools.WebSearchPrime
	case ToolWebReader:
		return tools.WebReader
	case ToolZread:
		return tools.Zread
	default:
		return false
	}
}

func (h *ReverseProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request, tools config.ZaiTools, urlNorm config.URLNormalization) {
	if !Gate(tools, h.tool) {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	if h.tool == ToolWebReader {
		body = normalizeWebReaderBody(body, urlNorm)
	}

	resp, err := h.forwarder.Forward(r, body)
	if err != nil {
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	// preserve mcp-session-id so the client can reuse it (§4.7).
	if sid := resp.Header.Get(SessionHeader); sid != "" {
		w.Header().Set(SessionHeader, sid)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			_, _ = w.Write(buf[:n])
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			break
		}
	}
}

// normalizeWebReaderBody rewrites params.arguments.url when the body is a
// JSON-RPC tools/call with params.name == "webReader" and the url is
// http(s); any other shape passes through unchanged.
func normalizeWebReaderBody(body []byte, mode config.URLNormalization) []byte {
	var req Request
	if json.Unmarshal(body, &req) != nil || req.Method != "tools/call" {
		return body
	}

	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if json.Unmarshal(req.Params, &params) != nil || params.Name != "webReader" {
		return body
	}

	rawURL, _ := params.Arguments["url"].(string)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return body
	}

	normalized, err := NormalizeWebReaderURL(rawURL, mode)
	if err != nil {
		return body
	}
	params.Arguments["url"] = normalized

	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return body
	}
	req.Params = paramsBytes

	out, err := json.Marshal(req)
	if err != nil {
		return body
	}
	return out
}
