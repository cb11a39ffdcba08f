package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/application/services"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/test/mocks"
)

// memCounterStore is an in-process counter store with real semantics, so
// the limiter's window accounting is tested against actual increments
// rather than canned return values.
type memCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemCounterStore() *memCounterStore {
	return &memCounterStore{counts: make(map[string]int64)}
}

func (s *memCounterStore) Get(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

func (s *memCounterStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func (s *memCounterStore) Decrement(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[key] <= 1 {
		delete(s.counts, key)
		return nil
	}
	s.counts[key]--
	return nil
}

func testPolicy(t *testing.T, max int, opts ...func(*ratelimit.Policy)) *ratelimit.Policy {
	t.Helper()
	p := ratelimit.Policy{
		Name:        "test",
		Window:      time.Minute,
		MaxRequests: max,
		KeyFunc:     ratelimit.AuthenticatedKey,
	}
	for _, opt := range opts {
		opt(&p)
	}
	built, err := ratelimit.NewPolicy(p)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return built
}

func TestAdmit_CountsDownThenDenies(t *testing.T) {
	store := newMemCounterStore()
	svc := services.NewRateLimiterService(store, 0, logrus.New())
	policy := testPolicy(t, 3)
	info := ratelimit.RequestInfo{UserID: "u1"}

	for i, wantRemaining := range []int{2, 1, 0} {
		d, err := svc.Admit(context.Background(), policy, info)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("admit %d: denied under limit", i)
		}
		if d.Remaining != wantRemaining {
			t.Fatalf("admit %d: remaining = %d, want %d", i, d.Remaining, wantRemaining)
		}
		if !d.Counted {
			t.Fatalf("admit %d: allowed decision not counted", i)
		}
	}

	d, err := svc.Admit(context.Background(), policy, info)
	if err != nil {
		t.Fatalf("admit over limit: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected denial once the window is full")
	}
	if d.Counted {
		t.Fatal("denied decision must not count")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("retry after = %v, want within (0, 1m]", d.RetryAfter)
	}
}

func TestAdmit_DistinctIdentitiesDoNotShareWindows(t *testing.T) {
	store := newMemCounterStore()
	svc := services.NewRateLimiterService(store, 0, nil)
	policy := testPolicy(t, 1)

	d1, _ := svc.Admit(context.Background(), policy, ratelimit.RequestInfo{UserID: "u1"})
	d2, _ := svc.Admit(context.Background(), policy, ratelimit.RequestInfo{UserID: "u2"})
	if !d1.Allowed || !d2.Allowed {
		t.Fatal("each identity gets its own window")
	}

	d3, _ := svc.Admit(context.Background(), policy, ratelimit.RequestInfo{UserID: "u1"})
	if d3.Allowed {
		t.Fatal("second request for u1 should be denied")
	}
}

func TestAdmit_ZeroCapDeniesWithoutStore(t *testing.T) {
	calls := 0
	store := &mocks.CounterStoreMock{
		GetFn: func(ctx context.Context, key string) (int64, error) {
			calls++
			return 0, nil
		},
		IncrementFn: func(ctx context.Context, key string, ttl time.Duration) (int64, error) {
			calls++
			return 1, nil
		},
	}
	svc := services.NewRateLimiterService(store, 0, nil)
	policy := testPolicy(t, 0)

	d, err := svc.Admit(context.Background(), policy, ratelimit.RequestInfo{UserID: "u1"})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if d.Allowed {
		t.Fatal("kill switch should deny everything")
	}
	if calls != 0 {
		t.Fatalf("kill switch made %d store calls, want 0", calls)
	}
}

func TestAdmit_FailsOpenOnStoreFault(t *testing.T) {
	store := &mocks.CounterStoreMock{
		GetFn: func(ctx context.Context, key string) (int64, error) {
			return 0, fmt.Errorf("connection refused")
		},
	}
	svc := services.NewRateLimiterService(store, 0, logrus.New())
	policy := testPolicy(t, 5)

	d, err := svc.Admit(context.Background(), policy, ratelimit.RequestInfo{UserID: "u1"})
	if err == nil {
		t.Fatal("expected the store error to surface for logging")
	}
	if !d.Allowed || !d.FailedOpen {
		t.Fatalf("expected allowed fail-open decision, got %+v", d)
	}
	if d.Counted {
		t.Fatal("fail-open decision must not count")
	}
}

func TestAdmitWithLimit_OverridesCapForOneCall(t *testing.T) {
	store := newMemCounterStore()
	svc := services.NewRateLimiterService(store, 0, nil)
	policy := testPolicy(t, 100)
	info := ratelimit.RequestInfo{UserID: "u1"}

	d1, _ := svc.AdmitWithLimit(context.Background(), policy, info, 1)
	if !d1.Allowed || d1.Limit != 1 {
		t.Fatalf("first call: %+v", d1)
	}
	d2, _ := svc.AdmitWithLimit(context.Background(), policy, info, 1)
	if d2.Allowed {
		t.Fatal("override cap of 1 should deny the second call")
	}
	if policy.MaxRequests != 100 {
		t.Fatalf("shared policy mutated: %d", policy.MaxRequests)
	}
}

func TestAdmit_WindowRollsOver(t *testing.T) {
	store := newMemCounterStore()
	svc := services.NewRateLimiterService(store, 0, nil)
	policy := testPolicy(t, 1, func(p *ratelimit.Policy) { p.Window = 30 * time.Millisecond })
	info := ratelimit.RequestInfo{UserID: "u1"}

	d1, _ := svc.Admit(context.Background(), policy, info)
	if !d1.Allowed {
		t.Fatal("first request denied")
	}
	time.Sleep(40 * time.Millisecond)
	d2, _ := svc.Admit(context.Background(), policy, info)
	if !d2.Allowed {
		t.Fatal("request after window rollover denied")
	}
}

func TestReconcile_RefundsPerSkipFlags(t *testing.T) {
	cases := []struct {
		name           string
		skipSuccessful bool
		skipFailed     bool
		success        bool
		wantRefund     bool
	}{
		{"skip successful, success", true, false, true, true},
		{"skip successful, failure", true, false, false, false},
		{"skip failed, failure", false, true, false, true},
		{"skip failed, success", false, true, true, false},
		{"no flags", false, false, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemCounterStore()
			svc := services.NewRateLimiterService(store, 0, nil)
			policy := testPolicy(t, 5, func(p *ratelimit.Policy) {
				p.SkipSuccessful = tc.skipSuccessful
				p.SkipFailed = tc.skipFailed
			})
			info := ratelimit.RequestInfo{UserID: "u1"}

			d, _ := svc.Admit(context.Background(), policy, info)
			svc.Reconcile(context.Background(), policy, d, tc.success)

			count, _ := store.Get(context.Background(), d.Key)
			wantCount := int64(1)
			if tc.wantRefund {
				wantCount = 0
			}
			if count != wantCount {
				t.Fatalf("count after reconcile = %d, want %d", count, wantCount)
			}
		})
	}
}

func TestReconcile_IgnoresUncountedDecisions(t *testing.T) {
	decremented := false
	store := &mocks.CounterStoreMock{
		DecrementFn: func(ctx context.Context, key string) error {
			decremented = true
			return nil
		},
	}
	svc := services.NewRateLimiterService(store, 0, nil)
	policy := testPolicy(t, 5, func(p *ratelimit.Policy) { p.SkipFailed = true })

	svc.Reconcile(context.Background(), policy, &ratelimit.Decision{Allowed: true, Counted: false, Key: "k"}, false)
	svc.Reconcile(context.Background(), policy, nil, false)
	if decremented {
		t.Fatal("uncounted decisions must never be refunded")
	}
}
