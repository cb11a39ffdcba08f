package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

// QuotaMiddleware gates consumption endpoints on the caller's monthly
// allowance.
type QuotaMiddleware struct {
	quota  ports.QuotaService
	logger *logrus.Logger
}

func NewQuotaMiddleware(quota ports.QuotaService, logger *logrus.Logger) *QuotaMiddleware {
	return &QuotaMiddleware{quota: quota, logger: logger}
}

// GateRecord parses the consumption request, checks the monthly quota for
// its resource and either refuses with 429 or stashes the parsed request
// in the context for the handler. Binding happens here because the body
// can only be read once; handlers behind this gate read the request via
// helpers.GetUsageRequestFromContext.
//
// A quota service fault admits the request: billing enforcement degrades
// before availability does.
func (m *QuotaMiddleware) GateRecord() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var req usage.CreateRecordRequest
			if err := c.Bind(&req); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
			}
			if req.ResourceType == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "resource_type is required")
			}

			userID, err := helpers.RequireUserID(c)
			if err != nil {
				return err
			}

			decision, err := m.quota.CheckQuota(c.Request().Context(), userID, req.ResourceType)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"user_id": userID, "resource_type": req.ResourceType}).WithError(err).Warn("quota check degraded; admitting request")
				}
				helpers.SetUsageRequest(c, &req)
				return next(c)
			}

			if !decision.Allowed {
				reset := decision.ResetDate
				return RespondDenial(c, &admission.Denial{
					Code:         admission.CodeUsageLimitExceeded,
					Message:      "monthly usage limit reached",
					ResetDate:    &reset,
					CurrentUsage: &decision.CurrentUsage,
					Limit:        &decision.Limit,
				})
			}

			helpers.SetUsageRequest(c, &req)
			return next(c)
		}
	}
}
