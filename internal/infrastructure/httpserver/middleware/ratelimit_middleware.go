package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

// RateLimitMiddleware gates routes behind fixed-window policies.
type RateLimitMiddleware struct {
	limiter   ports.RateLimiterService
	logger    *logrus.Logger
	decisions *prometheus.CounterVec
}

func NewRateLimitMiddleware(limiter ports.RateLimiterService, decisions *prometheus.CounterVec, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, decisions: decisions, logger: logger}
}

// Limit enforces policy on every request passing through. Denied requests
// get a 429 with Retry-After; admitted requests carry the remaining
// allowance in the X-RateLimit headers. When the counter store is down the
// request passes with no headers at all rather than lying about the count.
func (m *RateLimitMiddleware) Limit(policy *ratelimit.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			info := requestInfo(c)

			decision, err := m.limiter.Admit(c.Request().Context(), policy, info)
			if err != nil && m.logger != nil {
				m.logger.WithFields(logrus.Fields{"policy": policy.Name, "path": c.Path()}).WithError(err).Warn("rate limit check degraded")
			}

			if decision.FailedOpen {
				m.observe(policy, "failed_open")
				return next(c)
			}

			setRateLimitHeaders(c, policy, decision)

			if !decision.Allowed {
				m.observe(policy, "denied")
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
				return RespondDenial(c, &admission.Denial{
					Code:       admission.CodeRateLimitExceeded,
					Message:    "rate limit exceeded, please try again later",
					RetryAfter: int(decision.RetryAfter.Seconds()),
				})
			}

			m.observe(policy, "allowed")
			handlerErr := next(c)

			if policy.SkipSuccessful || policy.SkipFailed {
				success := handlerErr == nil && c.Response().Status < 400
				m.limiter.Reconcile(c.Request().Context(), policy, decision, success)
			}
			return handlerErr
		}
	}
}

func (m *RateLimitMiddleware) observe(policy *ratelimit.Policy, outcome string) {
	if m.decisions != nil {
		m.decisions.WithLabelValues(policy.Name, outcome).Inc()
	}
}

// requestInfo gathers the request attributes key functions consume. The
// identity middleware runs earlier in the chain, so the authenticated
// subject is already resolved when present.
func requestInfo(c echo.Context) ratelimit.RequestInfo {
	info := ratelimit.RequestInfo{
		IP:        c.RealIP(),
		Method:    c.Request().Method,
		Path:      c.Path(),
		UserAgent: c.Request().UserAgent(),
	}
	if info.Path == "" {
		info.Path = c.Request().URL.Path
	}
	if id, ok := helpers.GetIdentityRaw(c); ok && id != nil && !id.Anonymous {
		info.UserID = id.UserID.String()
	}
	return info
}

func setRateLimitHeaders(c echo.Context, policy *ratelimit.Policy, d *ratelimit.Decision) {
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	if policy.Headers.Standard {
		h.Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(time.RFC3339))
	} else if policy.Headers.Legacy {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}
