package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

// EntitlementMiddleware gates routes on the caller's plan tier or on a
// specific feature grant. Anonymous callers hold no plan and are refused
// with the same denial shape an under-provisioned plan gets.
type EntitlementMiddleware struct {
	entitlements ports.EntitlementService
	logger       *logrus.Logger
}

func NewEntitlementMiddleware(entitlements ports.EntitlementService, logger *logrus.Logger) *EntitlementMiddleware {
	return &EntitlementMiddleware{entitlements: entitlements, logger: logger}
}

// RequirePlan admits callers whose plan ranks at or above minimum.
func (m *EntitlementMiddleware) RequirePlan(minimum plan.Name) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := helpers.GetIdentityRaw(c)
			if !ok || id == nil || id.Anonymous {
				return RespondDenial(c, &admission.Denial{
					Code:         admission.CodePlanUpgradeRequired,
					Message:      "this feature requires a subscription",
					RequiredPlan: string(minimum),
				})
			}

			err := m.entitlements.RequirePlan(c.Request().Context(), id.UserID, minimum)
			if err == nil {
				return next(c)
			}
			var denial *admission.Denial
			if errors.As(err, &denial) {
				return RespondDenial(c, denial)
			}
			if m.logger != nil {
				m.logger.WithField("user_id", id.UserID).WithError(err).Error("plan check failed")
			}
			return err
		}
	}
}

// RequireFeature admits callers whose plan grants action on resource.
func (m *EntitlementMiddleware) RequireFeature(resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := helpers.GetIdentityRaw(c)
			if !ok || id == nil || id.Anonymous {
				return RespondDenial(c, &admission.Denial{
					Code:    admission.CodeFeatureNotAvailable,
					Message: "this feature requires a subscription",
				})
			}

			err := m.entitlements.RequireFeature(c.Request().Context(), id.UserID, resource, action)
			if err == nil {
				return next(c)
			}
			var denial *admission.Denial
			if errors.As(err, &denial) {
				return RespondDenial(c, denial)
			}
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"user_id": id.UserID, "resource": resource, "action": action}).WithError(err).Error("feature check failed")
			}
			return err
		}
	}
}
