// Package gwerrors defines the gateway's typed error kinds and renders them
// into the upstream-facing error shapes (Anthropic, OpenAI, Gemini) and the
// SSE error event form.
package gwerrors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind identifies one of the gateway's error categories.
type Kind string

const (
	KindConfigInvalid      Kind = "config_invalid"
	KindUnauthorized       Kind = "unauthorized"
	KindNoEligibleAccount  Kind = "no_eligible_account"
	KindQuotaExhausted     Kind = "quota_exhausted"
	KindRateLimited        Kind = "rate_limited"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamClientError Kind = "upstream_client_error"
	KindToolInputInvalid   Kind = "tool_input_invalid"
	KindSessionUnknown     Kind = "session_unknown"
)

// Error is the gateway's internal error type. Message is the text shown to
// the caller; it must never contain an account email or the configured
// api_key.
type Error struct {
	Kind    Kind
	Message string
	Model   string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind, wrapping a lower-level cause. The
// cause's text is never included in Message — only in the wrapped chain,
// so callers that log %v get detail but HTTP responses never leak it.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: cause}
}

// WithModel annotates the error with the candidate model being served.
func (e *Error) WithModel(model string) *Error {
	e.Model = model
	return e
}

// StatusCode maps a Kind to the HTTP status policy of the error contract.
func (k Kind) StatusCode() int {
	switch k {
	case KindConfigInvalid, KindToolInputInvalid:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindSessionUnknown:
		return http.StatusConflict
	case KindQuotaExhausted, KindNoEligibleAccount:
		return http.StatusTooManyRequests
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamClientError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Surface identifies which vendor error shape a response must take.
type Surface string

const (
	SurfaceAnthropic Surface = "anthropic"
	SurfaceOpenAI    Surface = "openai"
	SurfaceGemini    Surface = "gemini"
)

// anthropicErrorType maps a Kind to the Anthropic "error.type" discriminator.
func anthropicErrorType(k Kind) string {
	switch k {
	case KindConfigInvalid, KindToolInputInvalid:
		return "invalid_request_error"
	case KindUnauthorized:
		return "authentication_error"
	case KindQuotaExhausted, KindNoEligibleAccount, KindRateLimited:
		return "overloaded_error"
	default:
		return "api_error"
	}
}

// Render produces the JSON body for the given vendor surface.
func (e *Error) Render(surface Surface) []byte {
	switch surface {
	case SurfaceOpenAI:
		return renderOpenAI(e)
	case SurfaceGemini:
		return renderGemini(e)
	default:
		return renderAnthropic(e)
	}
}

func renderAnthropic(e *Error) []byte {
	body := map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    anthropicErrorType(e.Kind),
			"message": e.Message,
		},
	}
	b, _ := json.Marshal(body)
	return b
}

func renderOpenAI(e *Error) []byte {
	code := string(e.Kind)
	typ := "api_error"
	switch e.Kind {
	case KindQuotaExhausted, KindNoEligibleAccount:
		typ = "insufficient_quota"
		code = "quota_exhausted"
	case KindRateLimited:
		typ = "rate_limit_error"
	case KindUnauthorized:
		typ = "invalid_request_error"
	case KindConfigInvalid, KindToolInputInvalid:
		typ = "invalid_request_error"
	}
	body := map[string]any{
		"error": map[string]any{
			"message": e.Message,
			"type":    typ,
			"code":    code,
		},
	}
	b, _ := json.Marshal(body)
	return b
}

func renderGemini(e *Error) []byte {
	status := "INTERNAL"
	switch e.Kind {
	case KindQuotaExhausted, KindNoEligibleAccount, KindRateLimited:
		status = "RESOURCE_EXHAUSTED"
	case KindUnauthorized:
		status = "UNAUTHENTICATED"
	case KindConfigInvalid, KindToolInputInvalid:
		status = "INVALID_ARGUMENT"
	}
	body := map[string]any{
		"error": map[string]any{
			"code":    e.Kind.StatusCode(),
			"status":  status,
			"message": e.Message,
		},
	}
	b, _ := json.Marshal(body)
	return b
}

// WriteHTTP writes the error as a plain JSON response with the correct
// status code for surface.
func (e *Error) WriteHTTP(w http.ResponseWriter, surface Surface) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Kind.StatusCode())
	_, _ = w.Write(e.Render(surface))
}

// WriteSSE emits the error as a terminal `event: error` SSE frame. Callers
// must not write to the stream afterward.
func (e *Error) WriteSSE(w http.ResponseWriter, surface Surface) {
	flusher, _ := w.(interface{ Flush() })
	_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", e.Render(surface))
	if flusher != nil {
		flusher.Flush()
	}
}

// ExhaustedMessage is the generic exhaustion message that the anthropic
// shape expects verbatim.
func ExhaustedMessage(model string) string {
	return fmt.Sprintf("No available accounts for model: %s (quota exhausted/unknown).", model)
}

// NoAlternativeMessage is shown when credential revocation leaves zero
// candidate accounts; it must never name the revoked account.
const NoAlternativeMessage = "no available accounts"
