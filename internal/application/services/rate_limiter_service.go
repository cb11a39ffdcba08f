package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// RateLimiterService implements fixed-window admission control on a shared
// counter store. It holds no per-request state; all coordination happens
// through the store's atomic increment, so the decision is consistent
// across process instances.
type RateLimiterService struct {
	store        ports.CounterStore
	storeTimeout time.Duration
	logger       *logrus.Logger
}

func NewRateLimiterService(store ports.CounterStore, storeTimeout time.Duration, logger *logrus.Logger) *RateLimiterService {
	if storeTimeout <= 0 {
		storeTimeout = 200 * time.Millisecond
	}
	return &RateLimiterService{store: store, storeTimeout: storeTimeout, logger: logger}
}

// Admit consumes one request unit under policy for the identity derived
// from info.
func (s *RateLimiterService) Admit(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
	return s.AdmitWithLimit(ctx, policy, info, policy.MaxRequests)
}

// AdmitWithLimit is Admit with maxRequests replacing the policy cap for
// this call only. The shared policy is never mutated.
func (s *RateLimiterService) AdmitWithLimit(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo, maxRequests int) (*ratelimit.Decision, error) {
	now := time.Now()
	identity := policy.KeyFunc(info)
	key := policy.CounterKey(identity, now)
	reset := policy.WindowReset(now)

	// A zero cap is a kill switch: deny everything, no store round trip.
	if maxRequests <= 0 {
		return s.denied(policy, key, maxRequests, now, reset), nil
	}

	count, err := s.storeGet(ctx, key)
	if err != nil {
		return s.failOpen(policy, identity, maxRequests, reset, err), err
	}

	if count >= int64(maxRequests) {
		return s.denied(policy, key, maxRequests, now, reset), nil
	}

	newCount, err := s.storeIncrement(ctx, key, time.Until(reset))
	if err != nil {
		return s.failOpen(policy, identity, maxRequests, reset, err), err
	}

	remaining := maxRequests - int(newCount)
	if remaining < 0 {
		remaining = 0
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"policy": policy.Name, "identity": identity, "count": newCount, "limit": maxRequests}).Debug("rate limiter window state")
	}

	return &ratelimit.Decision{
		Allowed:   true,
		Limit:     maxRequests,
		Remaining: remaining,
		ResetAt:   reset,
		Key:       key,
		Counted:   true,
	}, nil
}

// Reconcile refunds the admission consumed by decision when the policy's
// skip flags call for it. Best effort: the increment already happened, so
// a lost refund only makes the limiter slightly stricter, never more
// permissive.
func (s *RateLimiterService) Reconcile(ctx context.Context, policy *ratelimit.Policy, decision *ratelimit.Decision, success bool) {
	if decision == nil || !decision.Counted {
		return
	}
	refund := (policy.SkipSuccessful && success) || (policy.SkipFailed && !success)
	if !refund {
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.Decrement(opCtx, decision.Key); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"policy": policy.Name, "key": decision.Key}).WithError(err).Warn("rate limiter: failed to refund admission")
		}
		return
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"policy": policy.Name, "key": decision.Key, "success": success}).Debug("rate limiter: admission refunded")
	}
}

func (s *RateLimiterService) storeGet(ctx context.Context, key string) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Get(opCtx, key)
}

func (s *RateLimiterService) storeIncrement(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Increment(opCtx, key, ttl)
}

func (s *RateLimiterService) denied(policy *ratelimit.Policy, key string, maxRequests int, now, reset time.Time) *ratelimit.Decision {
	retryAfter := time.Duration(math.Ceil(reset.Sub(now).Seconds())) * time.Second
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return &ratelimit.Decision{
		Allowed:    false,
		Limit:      maxRequests,
		Remaining:  0,
		ResetAt:    reset,
		RetryAfter: retryAfter,
		Key:        key,
	}
}

// failOpen builds the decision for an unreachable or failing counter
// store: the request passes uncounted so that a cache outage never
// becomes an API outage.
func (s *RateLimiterService) failOpen(policy *ratelimit.Policy, identity string, maxRequests int, reset time.Time, err error) *ratelimit.Decision {
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"policy": policy.Name, "identity": identity}).WithError(err).Warn("rate limiter: counter store unavailable; allowing request (fail-open)")
	}
	return &ratelimit.Decision{
		Allowed:    true,
		FailedOpen: true,
		Limit:      maxRequests,
		Remaining:  0,
		ResetAt:    reset,
	}
}
