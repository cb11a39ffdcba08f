package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

// recordUsage appends one consumption event. The quota middleware already
// parsed the body and admitted the request; the handler only records.
func (s *Server) recordUsage(c echo.Context) error {
	req, err := helpers.GetUsageRequestFromContext(c)
	if err != nil {
		return err
	}
	userID, err := helpers.RequireUserID(c)
	if err != nil {
		return err
	}
	record, err := s.quotaService.RecordUsage(c.Request().Context(), userID, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, record)
}

func (s *Server) getOwnUsageSummary(c echo.Context) error {
	userID, err := helpers.RequireUserID(c)
	if err != nil {
		return err
	}
	return s.respondUsageSummary(c, userID)
}

func (s *Server) getUserUsageSummary(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	return s.respondUsageSummary(c, userID)
}

func (s *Server) respondUsageSummary(c echo.Context, userID uuid.UUID) error {
	summary, err := s.quotaService.GetUsageSummary(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user_id": userID, "resources": summary})
}

func (s *Server) listUsageRecords(c echo.Context) error {
	filter := &usage.Filter{Limit: 50, Offset: 0}

	if v := c.QueryParam("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id filter")
		}
		filter.UserID = &id
	}
	if v := c.QueryParam("resource_type"); v != "" {
		filter.ResourceType = &v
	}
	if v := c.QueryParam("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_time filter")
		}
		filter.StartTime = &t
	}
	if v := c.QueryParam("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_time filter")
		}
		filter.EndTime = &t
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	records, total, err := s.quotaService.ListRecords(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}
