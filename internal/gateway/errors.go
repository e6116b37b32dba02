package gateway

import (
	"errors"

	"github.com/rpay/antigravity-gateway/internal/accountpool"
	"github.com/rpay/antigravity-gateway/internal/routing"
)

// classifiedError carries a routing.FailureReason alongside the cause, so
// an upstream.Attempt failure can drive the fallback loop's rate-limit
// bookkeeping (§4.4 "Fallback loop").
type classifiedError struct {
	reason routing.FailureReason
	cause  error
}

func (e *classifiedError) Error() string { return e.cause.Error() }
func (e *classifiedError) Unwrap() error { return e.cause }
func (e *classifiedError) FailureReason() routing.FailureReason { return e.reason }

var _ routing.Classifiable = (*classifiedError)(nil)

// statusCoder is implemented by HTTP-transport upstream errors; the
// production transform.Pipeline / passthrough.Client implementations
// surface upstream status codes this way.
type statusCoder interface {
	StatusCode() int
}

// upstreamFailure classifies an Upstream.Attempt error into the reason
// taxonomy the routing engine understands. Credential revocation
// (accountpool.ErrInvalidGrant) is never retried against the same
// account — Pool.AccessToken has already disabled and removed it from the
// pool by the time this returns — but it is classified rather than left
// opaque, so the fallback loop advances to the next eligible account
// instead of aborting the whole chain with a generic failure.
func upstreamFailure(err error) error {
	if err == nil {
		return nil
	}
	if already, ok := err.(routing.Classifiable); ok {
		return already
	}
	if errors.Is(err, accountpool.ErrInvalidGrant) {
		return &classifiedError{reason: routing.FailureAccountRevoked, cause: err}
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		switch {
		case sc.StatusCode() == 429:
			return &classifiedError{reason: routing.FailureRateLimitExceeded, cause: err}
		case sc.StatusCode() >= 500:
			return &classifiedError{reason: routing.FailureServerError, cause: err}
		}
	}
	return err
}
