// Package mcp implements the minimal tool-call ("MCP") session surface: the
// reverse-proxy variant (web_search_prime, web_reader, zread) and the
// built-in variant (zai-mcp-server vision tools), §4.7.
package mcp

import (
	"net/url"
	"strings"

	"github.com/rpay/antigravity-gateway/internal/config"
)

// trackingParamPrefixes and exact tracking parameter names stripped by
// strip_tracking_query.
var trackingParamPrefixes = []string{"utm_", "hsa_"}
var trackingParamNames = map[string]bool{
	"gclid": true, "fbclid": true, "gbraid": true, "wbraid": true, "msclkid": true,
}

// NormalizeWebReaderURL implements the web_reader_url_normalization modes
// of §4.7. off is identity; strip_tracking_query removes the listed
// tracking parameters (dropping the query entirely if emptied);
// strip_query removes the query string exactly once.
func NormalizeWebReaderURL(raw string, mode config.URLNormalization) (string, error) {
	if mode == config.URLNormOff || mode == "" {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw, err
	}

	switch mode {
	case config.URLNormStripQuery:
		u.RawQuery = ""
	case config.URLNormStripTrackingQuery:
		q := u.Query()
		for key := range q {
			if isTrackingParam(key) {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if trackingParamNames[lower] {
		return true
	}
	for _, prefix := range trackingParamPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
