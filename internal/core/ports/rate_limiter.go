package ports

import (
	"context"
	"time"

	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
)

// CounterStore provides the atomic counter primitives fixed-window rate
// limiting needs. It abstracts storage (e.g., Redis). Implementations must
// be safe for concurrent use and keep each operation to one round trip
// where the backend allows it.
type CounterStore interface {
	// Get returns the current count for key. Missing keys read as zero.
	Get(ctx context.Context, key string) (int64, error)
	// Increment atomically adds one to key and returns the new count,
	// applying ttl so abandoned windows expire on their own.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Decrement atomically subtracts one from key. Implementations remove
	// keys that would drop below zero instead of storing negative counts.
	Decrement(ctx context.Context, key string) error
}

// RateLimiterService decides per-request admission against fixed-window
// policies. Implementations MUST fail open: a counter store fault admits
// the request rather than turning a cache outage into an API outage.
type RateLimiterService interface {
	// Admit consumes one request unit for the identity derived from info
	// and reports the decision. On store faults the returned decision is
	// allowed with FailedOpen set, alongside the error for logging.
	Admit(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error)
	// AdmitWithLimit behaves like Admit with maxRequests replacing the
	// policy cap for this call only. The shared policy is never mutated.
	AdmitWithLimit(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo, maxRequests int) (*ratelimit.Decision, error)
	// Reconcile refunds the admission consumed by decision when the
	// policy's skip flags call for it. Best effort: failures are logged,
	// never retried, and never fail the request.
	Reconcile(ctx context.Context, policy *ratelimit.Policy, decision *ratelimit.Decision, success bool)
}
