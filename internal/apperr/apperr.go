// Package apperr defines the error taxonomy shared by every component so
// that the HTTP surface (internal/httpapi) can classify a failure once, at
// the outward boundary, instead of each caller inventing its own strings.
package apperr

import "github.com/cockroachdb/errors"

// Sentinel errors. Wrap with errors.Wrap/errors.Wrapf at the site of
// failure and unwrap with errors.Is at the boundary that needs to react.
var (
	// ErrInvalidInput: validation/canonicalization failure. 400, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound: no record for the given key. 404, never logged as error.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey: a unique-keyed insert collided with an existing
	// record. The pipeline treats this as success (§4.3/§4.4).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrRateLimited: generic per-identity sliding-window throttle tripped. 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded: subscription-gated AI quota exhausted. 403.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrUpstreamUnavailable: the AI provider failed transiently (timeout,
	// 5xx, rate-limit). 503, or an SSE error frame if already streaming.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamConfig: the AI provider rejected the request as a client
	// error (400/401). Surfaced as a 500 configuration error; never retried.
	ErrUpstreamConfig = errors.New("upstream configuration error")

	// ErrPipelineExhausted: every search candidate was tried and none
	// produced a usable English match.
	ErrPipelineExhausted = errors.New("pipeline exhausted all candidates")

	// ErrPipelineTimeout: the per-job 15-minute wall clock elapsed.
	ErrPipelineTimeout = errors.New("pipeline timed out")
)

// RetryAfter carries a retry hint alongside ErrRateLimited/ErrQuotaExceeded
// so the HTTP boundary can set the Retry-After header and shape the body
// without re-deriving the window arithmetic.
type RetryAfter struct {
	Err     error
	Seconds int64
}

func (e *RetryAfter) Error() string { return e.Err.Error() }
func (e *RetryAfter) Unwrap() error  { return e.Err }

func NewRetryAfter(err error, seconds int64) *RetryAfter {
	return &RetryAfter{Err: err, Seconds: seconds}
}
