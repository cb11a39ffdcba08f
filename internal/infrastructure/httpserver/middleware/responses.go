package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
)

// denialEnvelope is the wire shape of every refusal:
// {success:false, message, code, retryAfter?, resetDate?, ...}.
type denialEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*admission.Denial
}

// DenialStatus maps a refusal code to its HTTP status: 429 for the
// time-based limits, 403 for the plan and feature gates.
func DenialStatus(d *admission.Denial) int {
	switch d.Code {
	case admission.CodeRateLimitExceeded, admission.CodeUsageLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusForbidden
	}
}

// RespondDenial writes the structured refusal body. Denials are expected
// outcomes; they never surface as echo errors.
func RespondDenial(c echo.Context, d *admission.Denial) error {
	return c.JSON(DenialStatus(d), denialEnvelope{Success: false, Message: d.Message, Denial: d})
}
