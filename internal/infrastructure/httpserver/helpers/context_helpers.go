package helpers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/identity"
	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
)

// GetIdentityFromContext returns the caller identity set by the identity
// middleware. Every route behind the middleware chain has one; a missing
// identity means the chain was misassembled.
func GetIdentityFromContext(c echo.Context) (*identity.Identity, error) {
	id, ok := GetIdentityRaw(c)
	if !ok || id == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid identity context")
	}
	return id, nil
}

// RequireUserID returns the authenticated subject, rejecting anonymous
// callers.
func RequireUserID(c echo.Context) (uuid.UUID, error) {
	id, err := GetIdentityFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	if id.Anonymous {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id.UserID, nil
}

// GetBearerToken extracts the bearer token from the Authorization header.
// ok is false when the header is absent or malformed; the identity
// middleware treats both the same as an anonymous caller.
func GetBearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// GetUsageRequestFromContext returns the consumption request parsed and
// quota-checked by the quota middleware.
func GetUsageRequestFromContext(c echo.Context) (*usage.CreateRecordRequest, error) {
	req, ok := GetUsageRequestRaw(c)
	if !ok || req == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid usage request context")
	}
	return req, nil
}
