package ports

import (
	"context"
	"time"
)

// EmailService defines the interface for email operations. Sending is a
// best-effort side channel: failures must never change an admission or
// quota decision.
type EmailService interface {
	SendQuotaExhaustedEmail(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error
	SendQuotaWarningEmail(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error
}

// EmailTemplate represents email template data
type EmailTemplate struct {
	Subject string
	Body    string
	IsHTML  bool
}
