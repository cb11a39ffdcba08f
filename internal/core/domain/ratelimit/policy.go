package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// Policy describes one fixed-window rate limit. Policies are immutable
// after construction: route registrations receive the value and nothing
// mutates it afterwards, so the same policy can guard concurrent routes.
type Policy struct {
	// Name labels the policy in logs, metrics and counter keys.
	Name string
	// Window is the fixed window length. Counters never straddle windows;
	// a client can burst up to twice MaxRequests across a boundary.
	Window time.Duration
	// MaxRequests caps admissions per identity per window. Zero is a kill
	// switch that denies every request the policy guards.
	MaxRequests int
	// KeyFunc derives the identity a counter is scoped to.
	KeyFunc KeyFunc
	// SkipSuccessful refunds the admission after a successful response.
	SkipSuccessful bool
	// SkipFailed refunds the admission after a failed response.
	SkipFailed bool
	// Headers selects the response header encodings.
	Headers HeaderStyle
	// KeyPrefix namespaces counter keys. Defaults to "ratelimit:" + Name
	// so two policies never share a counter.
	KeyPrefix string
}

// HeaderStyle selects how X-RateLimit-Reset is encoded. Limit and
// Remaining are identical under both styles. When both are enabled the
// standard RFC 3339 encoding wins.
type HeaderStyle struct {
	Standard bool // X-RateLimit-Reset as RFC 3339
	Legacy   bool // X-RateLimit-Reset as Unix seconds
}

// NewPolicy validates p and returns an immutable copy. Misconfiguration
// is a construction error, never a silent runtime fallback.
func NewPolicy(p Policy) (*Policy, error) {
	if p.Name == "" {
		return nil, errors.New("rate limit policy: name is required")
	}
	if p.Window < time.Millisecond {
		return nil, fmt.Errorf("rate limit policy %q: window must be at least 1ms, got %s", p.Name, p.Window)
	}
	if p.MaxRequests < 0 {
		return nil, fmt.Errorf("rate limit policy %q: max requests must not be negative, got %d", p.Name, p.MaxRequests)
	}
	if p.KeyFunc == nil {
		return nil, fmt.Errorf("rate limit policy %q: key func is required", p.Name)
	}
	if !p.Headers.Standard && !p.Headers.Legacy {
		p.Headers.Standard = true
	}
	if p.KeyPrefix == "" {
		p.KeyPrefix = "ratelimit:" + p.Name
	}
	return &p, nil
}

// Bucket returns the index of the fixed window containing now.
func (p *Policy) Bucket(now time.Time) int64 {
	return now.UnixMilli() / p.Window.Milliseconds()
}

// CounterKey returns the storage key for identity's counter in the window
// containing now. The bucket index is part of the key, so counters are
// never reused across windows.
func (p *Policy) CounterKey(identity string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", p.KeyPrefix, identity, p.Bucket(now))
}

// WindowReset returns the instant the window containing now rolls over.
func (p *Policy) WindowReset(now time.Time) time.Time {
	return time.UnixMilli((p.Bucket(now) + 1) * p.Window.Milliseconds())
}

// Decision captures the outcome of one admission check.
type Decision struct {
	Allowed bool `json:"allowed"`
	// FailedOpen marks a decision taken while the counter store was
	// unreachable. The request passes and no rate limit headers are set.
	FailedOpen bool      `json:"failed_open,omitempty"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	// RetryAfter is the whole-second wait a denied caller should observe.
	// Zero unless denied.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	// Key is the counter the admission landed in. Refunds target this key
	// even if the window rolled over in the meantime.
	Key string `json:"-"`
	// Counted records whether the check incremented a counter; denied and
	// failed-open checks do not.
	Counted bool `json:"-"`
}
