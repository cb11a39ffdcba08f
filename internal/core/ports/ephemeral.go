package ports

import (
	"context"
	"time"
)

// EphemeralRepository defines cleanup operations for short-lived rows the
// auth collaborator writes into the shared database (one-time codes and
// sessions). Gatekeeper only deletes rows whose expiry has passed; it
// never creates or reads them.
type EphemeralRepository interface {
	// DeleteExpiredCodes removes one-time codes expired as of now and
	// returns the number of rows deleted.
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)
	// DeleteExpiredSessions removes sessions expired as of now and
	// returns the number of rows deleted.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
