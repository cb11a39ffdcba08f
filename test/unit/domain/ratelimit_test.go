package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
)

func mustPolicy(t *testing.T, p ratelimit.Policy) *ratelimit.Policy {
	t.Helper()
	built, err := ratelimit.NewPolicy(p)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return built
}

func TestNewPolicy_Validation(t *testing.T) {
	base := ratelimit.Policy{
		Name:        "general",
		Window:      time.Minute,
		MaxRequests: 10,
		KeyFunc:     ratelimit.AnonymousKey,
	}

	if _, err := ratelimit.NewPolicy(base); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}

	noName := base
	noName.Name = ""
	if _, err := ratelimit.NewPolicy(noName); err == nil {
		t.Fatal("expected error for missing name")
	}

	shortWindow := base
	shortWindow.Window = time.Microsecond
	if _, err := ratelimit.NewPolicy(shortWindow); err == nil {
		t.Fatal("expected error for sub-millisecond window")
	}

	negative := base
	negative.MaxRequests = -1
	if _, err := ratelimit.NewPolicy(negative); err == nil {
		t.Fatal("expected error for negative max requests")
	}

	noKey := base
	noKey.KeyFunc = nil
	if _, err := ratelimit.NewPolicy(noKey); err == nil {
		t.Fatal("expected error for missing key func")
	}

	// Zero cap is the kill switch, not a misconfiguration.
	killSwitch := base
	killSwitch.MaxRequests = 0
	if _, err := ratelimit.NewPolicy(killSwitch); err != nil {
		t.Fatalf("zero max requests should be accepted: %v", err)
	}
}

func TestNewPolicy_Defaults(t *testing.T) {
	p := mustPolicy(t, ratelimit.Policy{
		Name:        "general",
		Window:      time.Minute,
		MaxRequests: 10,
		KeyFunc:     ratelimit.AnonymousKey,
	})

	if !p.Headers.Standard || p.Headers.Legacy {
		t.Fatalf("expected standard headers by default, got %+v", p.Headers)
	}
	if p.KeyPrefix != "ratelimit:general" {
		t.Fatalf("unexpected key prefix %q", p.KeyPrefix)
	}
}

func TestPolicy_BucketAndReset(t *testing.T) {
	p := mustPolicy(t, ratelimit.Policy{
		Name:        "w",
		Window:      time.Minute,
		MaxRequests: 5,
		KeyFunc:     ratelimit.AuthenticatedKey,
	})

	now := time.UnixMilli(90_000) // 1m30s after epoch
	if got := p.Bucket(now); got != 1 {
		t.Fatalf("bucket = %d, want 1", got)
	}

	reset := p.WindowReset(now)
	if want := time.UnixMilli(120_000); !reset.Equal(want) {
		t.Fatalf("reset = %v, want %v", reset, want)
	}

	// Two instants inside the same window share a counter key; the next
	// window gets a fresh one.
	k1 := p.CounterKey("user:u1", time.UnixMilli(60_000))
	k2 := p.CounterKey("user:u1", time.UnixMilli(119_999))
	k3 := p.CounterKey("user:u1", time.UnixMilli(120_000))
	if k1 != k2 {
		t.Fatalf("keys in one window differ: %q vs %q", k1, k2)
	}
	if k1 == k3 {
		t.Fatalf("keys across windows collide: %q", k1)
	}
	if !strings.HasPrefix(k1, "ratelimit:w:user:u1:") {
		t.Fatalf("unexpected key shape %q", k1)
	}
}

func TestKeyFuncs(t *testing.T) {
	info := ratelimit.RequestInfo{
		IP:        "10.0.0.1",
		Method:    "POST",
		Path:      "/api/v1/usage",
		UserAgent: "curl/8.0",
	}

	anon := ratelimit.AnonymousKey(info)
	if !strings.HasPrefix(anon, "ip:10.0.0.1:") {
		t.Fatalf("anonymous key %q missing ip scope", anon)
	}

	// Distinct client signatures behind one IP get distinct keys.
	other := info
	other.UserAgent = "Mozilla/5.0"
	if ratelimit.AnonymousKey(other) == anon {
		t.Fatal("distinct user agents share an anonymous key")
	}

	if got := ratelimit.AuthenticatedKey(info); got != "user:anonymous" {
		t.Fatalf("authenticated key without subject = %q", got)
	}
	info.UserID = "u-42"
	if got := ratelimit.AuthenticatedKey(info); got != "user:u-42" {
		t.Fatalf("authenticated key = %q", got)
	}

	if got := ratelimit.EndpointKey(info); got != "10.0.0.1:POST:/api/v1/usage" {
		t.Fatalf("endpoint key = %q", got)
	}
}
