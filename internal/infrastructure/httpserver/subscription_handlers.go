package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/subscription"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

func (s *Server) subscribe(c echo.Context) error {
	var req subscription.CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	// Callers subscribe themselves; the user id comes from the token, not
	// the body.
	userID, err := helpers.RequireUserID(c)
	if err != nil {
		return err
	}
	req.UserID = userID
	if req.PlanID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "plan_id is required")
	}

	sub, err := s.subscriptionSvc.Subscribe(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusCreated, sub)
}

func (s *Server) getOwnSubscription(c echo.Context) error {
	userID, err := helpers.RequireUserID(c)
	if err != nil {
		return err
	}
	sub, err := s.subscriptionSvc.GetUserSubscription(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, sub)
}

func (s *Server) getUserSubscription(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	sub, err := s.subscriptionSvc.GetUserSubscription(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, sub)
}

func (s *Server) updateSubscription(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	var req subscription.UpdateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sub, err := s.subscriptionSvc.UpdateSubscription(c.Request().Context(), userID, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sub)
}

func (s *Server) cancelSubscription(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	if err := s.subscriptionSvc.CancelSubscription(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
