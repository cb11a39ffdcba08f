package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Identity    *IdentityMiddleware
	Logging     *LoggingMiddleware
	RateLimit   *RateLimitMiddleware
	Entitlement *EntitlementMiddleware
	Quota       *QuotaMiddleware
	Metrics     *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	rateLimiterService ports.RateLimiterService,
	entitlementService ports.EntitlementService,
	quotaService ports.QuotaService,
	logger *logrus.Logger,
	jwtSecret string,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	admissionDecisions *prometheus.CounterVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		Identity:    NewIdentityMiddleware(jwtSecret, logger),
		Logging:     NewLoggingMiddleware(logger),
		RateLimit:   NewRateLimitMiddleware(rateLimiterService, admissionDecisions, logger),
		Entitlement: NewEntitlementMiddleware(entitlementService, logger),
		Quota:       NewQuotaMiddleware(quotaService, logger),
		Metrics:     NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
