package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

// getOwnEntitlements reports the caller's effective plan. Users without an
// entitling subscription see the free tier with no features and no limits,
// the same view the gates enforce.
func (s *Server) getOwnEntitlements(c echo.Context) error {
	userID, err := helpers.RequireUserID(c)
	if err != nil {
		return err
	}

	p, err := s.entitlementSvc.GetEntitlements(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := map[string]interface{}{
		"user_id": userID,
		"plan":    plan.Free,
	}
	if p != nil {
		resp["plan"] = p.Name
		resp["features"] = p.Features
		resp["limits"] = p.Limits
	}
	return c.JSON(http.StatusOK, resp)
}
