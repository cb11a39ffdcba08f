package middleware

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/identity"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/httpserver/helpers"
)

// IdentityMiddleware resolves the caller from a bearer token issued by
// the platform's auth service. Gatekeeper only verifies the signature and
// reads the claims; it never issues tokens.
type IdentityMiddleware struct {
	jwtSecret string
	logger    *logrus.Logger
}

func NewIdentityMiddleware(jwtSecret string, logger *logrus.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{jwtSecret: jwtSecret, logger: logger}
}

// Resolve attaches the caller identity to the request context. Absent or
// invalid tokens resolve to the anonymous identity rather than failing:
// public routes stay reachable and still get rate limited under the
// anonymous key.
func (m *IdentityMiddleware) Resolve() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := helpers.GetBearerToken(c)
			if !ok {
				helpers.SetIdentity(c, identity.Anonymous())
				return next(c)
			}

			claims, err := m.parseClaims(tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).WithError(err).Debug("invalid bearer token; treating caller as anonymous")
				}
				helpers.SetIdentity(c, identity.Anonymous())
				return next(c)
			}

			helpers.SetIdentity(c, identity.FromClaims(claims))
			return next(c)
		}
	}
}

// RequireAuthenticated rejects anonymous callers. It assumes Resolve ran
// earlier in the chain.
func (m *IdentityMiddleware) RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := helpers.GetIdentityRaw(c)
			if !ok || id == nil || id.Anonymous {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

func (m *IdentityMiddleware) parseClaims(tokenString string) (*identity.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &identity.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*identity.Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
