package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/identity"
	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/jobdeck/gatekeeper/test/mocks"
)

const testSecret = "test-secret"

func newContext(t *testing.T, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func signedToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	claims := &identity.Claims{
		UserID: userID,
		Email:  "u@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestIdentityMiddleware_NoTokenResolvesAnonymous(t *testing.T) {
	m := middleware.NewIdentityMiddleware(testSecret, logrus.New())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, _ := newContext(t, req)

	err := m.Resolve()(func(c echo.Context) error {
		id, ok := helpers.GetIdentityRaw(c)
		require.True(t, ok)
		require.True(t, id.Anonymous)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func TestIdentityMiddleware_InvalidTokenResolvesAnonymous(t *testing.T) {
	m := middleware.NewIdentityMiddleware(testSecret, logrus.New())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	c, _ := newContext(t, req)

	err := m.Resolve()(func(c echo.Context) error {
		id, ok := helpers.GetIdentityRaw(c)
		require.True(t, ok)
		require.True(t, id.Anonymous)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func TestIdentityMiddleware_ValidTokenResolvesSubject(t *testing.T) {
	userID := uuid.New()
	m := middleware.NewIdentityMiddleware(testSecret, logrus.New())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, userID))
	c, _ := newContext(t, req)

	err := m.Resolve()(func(c echo.Context) error {
		id, ok := helpers.GetIdentityRaw(c)
		require.True(t, ok)
		require.False(t, id.Anonymous)
		require.Equal(t, userID, id.UserID)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func TestRateLimitMiddleware_SetsStandardHeaders(t *testing.T) {
	reset := time.Now().Add(30 * time.Second).Truncate(time.Second)
	limiter := &tmocks.RateLimiterServiceMock{
		AdmitFn: func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
			return &ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 7, ResetAt: reset, Counted: true}, nil
		},
	}
	m := middleware.NewRateLimitMiddleware(limiter, nil, logrus.New())
	policy, err := ratelimit.NewPolicy(ratelimit.Policy{Name: "general", Window: time.Minute, MaxRequests: 10, KeyFunc: ratelimit.AnonymousKey})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	require.NoError(t, m.Limit(policy)(okHandler)(c))

	require.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "7", rec.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, reset.UTC().Format(time.RFC3339), rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitMiddleware_LegacyResetHeader(t *testing.T) {
	reset := time.Now().Add(30 * time.Second).Truncate(time.Second)
	limiter := &tmocks.RateLimiterServiceMock{
		AdmitFn: func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
			return &ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9, ResetAt: reset, Counted: true}, nil
		},
	}
	m := middleware.NewRateLimitMiddleware(limiter, nil, logrus.New())
	policy, err := ratelimit.NewPolicy(ratelimit.Policy{
		Name: "legacy", Window: time.Minute, MaxRequests: 10,
		KeyFunc: ratelimit.AnonymousKey,
		Headers: ratelimit.HeaderStyle{Legacy: true},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	require.NoError(t, m.Limit(policy)(okHandler)(c))

	epoch := rec.Header().Get("X-RateLimit-Reset")
	require.NotEmpty(t, epoch)
	require.NotContains(t, epoch, "T", "legacy reset should be unix seconds, not RFC 3339")
}

func TestRateLimitMiddleware_DenialBody(t *testing.T) {
	limiter := &tmocks.RateLimiterServiceMock{
		AdmitFn: func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
			return &ratelimit.Decision{Allowed: false, Limit: 10, Remaining: 0, ResetAt: time.Now().Add(42 * time.Second), RetryAfter: 42 * time.Second}, nil
		},
	}
	m := middleware.NewRateLimitMiddleware(limiter, nil, logrus.New())
	policy, err := ratelimit.NewPolicy(ratelimit.Policy{Name: "general", Window: time.Minute, MaxRequests: 10, KeyFunc: ratelimit.AnonymousKey})
	require.NoError(t, err)

	handlerRan := false
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	err = m.Limit(policy)(func(c echo.Context) error {
		handlerRan = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	require.False(t, handlerRan)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "42", rec.Header().Get("Retry-After"))

	var body struct {
		Success    bool   `json:"success"`
		Code       string `json:"code"`
		RetryAfter int    `json:"retryAfter"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, string(admission.CodeRateLimitExceeded), body.Code)
	require.Equal(t, 42, body.RetryAfter)
}

func TestRateLimitMiddleware_FailOpenSetsNoHeaders(t *testing.T) {
	limiter := &tmocks.RateLimiterServiceMock{
		AdmitFn: func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
			return &ratelimit.Decision{Allowed: true, FailedOpen: true}, context.DeadlineExceeded
		},
	}
	m := middleware.NewRateLimitMiddleware(limiter, nil, logrus.New())
	policy, err := ratelimit.NewPolicy(ratelimit.Policy{Name: "general", Window: time.Minute, MaxRequests: 10, KeyFunc: ratelimit.AnonymousKey})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	require.NoError(t, m.Limit(policy)(okHandler)(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	require.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
	require.Empty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitMiddleware_ReconcilesWhenSkipFlagged(t *testing.T) {
	var reconciled bool
	var reconcileSuccess bool
	limiter := &tmocks.RateLimiterServiceMock{
		AdmitFn: func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
			return &ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9, ResetAt: time.Now().Add(time.Minute), Counted: true, Key: "k"}, nil
		},
		ReconcileFn: func(ctx context.Context, policy *ratelimit.Policy, decision *ratelimit.Decision, success bool) {
			reconciled = true
			reconcileSuccess = success
		},
	}
	m := middleware.NewRateLimitMiddleware(limiter, nil, logrus.New())
	policy, err := ratelimit.NewPolicy(ratelimit.Policy{
		Name: "write", Window: time.Minute, MaxRequests: 10,
		KeyFunc: ratelimit.EndpointKey, SkipFailed: true,
	})
	require.NoError(t, err)

	// A 4xx response counts as failure for reconciliation.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	c, _ := newContext(t, req)
	require.NoError(t, m.Limit(policy)(func(c echo.Context) error {
		return c.NoContent(http.StatusBadRequest)
	})(c))
	require.True(t, reconciled)
	require.False(t, reconcileSuccess)
}

func TestEntitlementMiddleware_AnonymousDenied(t *testing.T) {
	m := middleware.NewEntitlementMiddleware(&tmocks.EntitlementServiceMock{}, logrus.New())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	helpers.SetIdentity(c, identity.Anonymous())

	require.NoError(t, m.RequirePlan(plan.Basic)(okHandler)(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, string(admission.CodePlanUpgradeRequired), body.Code)
}

func TestEntitlementMiddleware_DenialRendered(t *testing.T) {
	ents := &tmocks.EntitlementServiceMock{
		RequireFeatureFn: func(ctx context.Context, userID uuid.UUID, resource, action string) error {
			return &admission.Denial{Code: admission.CodeFeatureNotAvailable, Message: "nope", CurrentPlan: "basic"}
		},
	}
	m := middleware.NewEntitlementMiddleware(ents, logrus.New())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	helpers.SetIdentity(c, &identity.Identity{UserID: uuid.New()})

	require.NoError(t, m.RequireFeature("plans", "manage")(okHandler)(c))
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Code        string `json:"code"`
		CurrentPlan string `json:"currentPlan"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, string(admission.CodeFeatureNotAvailable), body.Code)
	require.Equal(t, "basic", body.CurrentPlan)
}

func TestEntitlementMiddleware_GrantPasses(t *testing.T) {
	m := middleware.NewEntitlementMiddleware(&tmocks.EntitlementServiceMock{}, logrus.New())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c, rec := newContext(t, req)
	helpers.SetIdentity(c, &identity.Identity{UserID: uuid.New()})

	require.NoError(t, m.RequirePlan(plan.Basic)(okHandler)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestQuotaMiddleware_DeniesOverLimit(t *testing.T) {
	reset := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	quota := &tmocks.QuotaServiceMock{
		CheckQuotaFn: func(ctx context.Context, userID uuid.UUID, resourceType string) (*usage.QuotaDecision, error) {
			return &usage.QuotaDecision{Allowed: false, CurrentUsage: 100, Limit: 100, ResetDate: reset}, nil
		},
	}
	m := middleware.NewQuotaMiddleware(quota, logrus.New())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"resource_type":"api_calls"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(t, req)
	helpers.SetIdentity(c, &identity.Identity{UserID: uuid.New()})

	require.NoError(t, m.GateRecord()(okHandler)(c))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body struct {
		Code         string `json:"code"`
		CurrentUsage int    `json:"currentUsage"`
		Limit        int    `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, string(admission.CodeUsageLimitExceeded), body.Code)
	require.Equal(t, 100, body.CurrentUsage)
	require.Equal(t, 100, body.Limit)
}

func TestQuotaMiddleware_AllowsAndStashesRequest(t *testing.T) {
	m := middleware.NewQuotaMiddleware(&tmocks.QuotaServiceMock{}, logrus.New())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"resource_type":"api_calls"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, rec := newContext(t, req)
	helpers.SetIdentity(c, &identity.Identity{UserID: uuid.New()})

	err := m.GateRecord()(func(c echo.Context) error {
		parsed, err := helpers.GetUsageRequestFromContext(c)
		require.NoError(t, err)
		require.Equal(t, "api_calls", parsed.ResourceType)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestQuotaMiddleware_MissingResourceTypeRejected(t *testing.T) {
	m := middleware.NewQuotaMiddleware(&tmocks.QuotaServiceMock{}, logrus.New())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c, _ := newContext(t, req)
	helpers.SetIdentity(c, &identity.Identity{UserID: uuid.New()})

	err := m.GateRecord()(okHandler)(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, htErr.Code)
}
