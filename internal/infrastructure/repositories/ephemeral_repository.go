package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/ports"
	"github.com/jobdeck/gatekeeper/internal/infrastructure/db"
)

// EphemeralRepository deletes expired short-lived rows the auth
// collaborator writes into the shared database. Gatekeeper owns the
// cleanup, not the rows.
type EphemeralRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewEphemeralRepository creates a new ephemeral-row repository
func NewEphemeralRepository(database *db.Database, logger *logrus.Logger) ports.EphemeralRepository {
	return &EphemeralRepository{
		db:     database,
		logger: logger,
	}
}

// DeleteExpiredCodes removes one-time codes expired as of now.
func (r *EphemeralRepository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM one_time_codes WHERE expires_at < $1`

	result, err := r.db.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired one-time codes: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// DeleteExpiredSessions removes sessions expired as of now.
func (r *EphemeralRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	result, err := r.db.DB.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
