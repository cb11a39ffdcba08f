package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
)

// checkAdmission runs the full admission pipeline on behalf of a sibling
// service. The response is always 200: the verdict lives in the body, not
// the status code, because a refusal of the described request is a
// successful answer to the caller.
func (s *Server) checkAdmission(c echo.Context) error {
	var req admission.CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.IP == "" || req.Method == "" || req.Path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ip, method and path are required")
	}
	if req.MaxRequests != nil && *req.MaxRequests < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_requests must not be negative")
	}

	result, err := s.admissionSvc.Check(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
