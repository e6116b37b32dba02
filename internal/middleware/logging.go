package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpay/antigravity-gateway/internal/attribution"
	"github.com/rpay/antigravity-gateway/internal/config"
)

// responseWriter captures the status code written by downstream handlers
// so the access log can report it after the fact.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Flush passes through to the underlying writer so SSE handlers
// (mcp/builtin.go, mcp/reverseproxy.go, gwerrors' WriteSSE) can stream
// incrementally through the access log wrapper.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack passes through for handlers that need the raw connection.
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support Hijack")
	}
	return h.Hijack()
}

// AccessLog wraps next with the one-line access logger of §4.8. snapshot
// is consulted per request so a config reload takes effect immediately.
func AccessLog(log zerolog.Logger, snapshot func() *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			cfg := snapshot()
			attribution.LogAccess(log, cfg.Observability.AccessLogEnabled, r.Method, r.URL.Path, rw.status, time.Since(start))
		})
	}
}
