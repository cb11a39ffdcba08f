package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
)

// UsageRepository defines the interface for usage record data operations.
// Records are append-only; the repository exposes no update or delete.
type UsageRepository interface {
	Create(ctx context.Context, record *usage.Record) error
	List(ctx context.Context, filter *usage.Filter) ([]*usage.Record, error)
	Count(ctx context.Context, filter *usage.Filter) (int, error)
	// CountSince returns the number of records for user and resource with
	// created_at at or after since. This is the quota read path.
	CountSince(ctx context.Context, userID uuid.UUID, resourceType string, since time.Time) (int, error)
}

// QuotaService defines the interface for monthly quota business logic
type QuotaService interface {
	// CheckQuota reports whether user may consume one more unit of
	// resource this calendar month. It never records consumption; two
	// concurrent checks may both pass near the limit.
	CheckQuota(ctx context.Context, userID uuid.UUID, resourceType string) (*usage.QuotaDecision, error)
	// RecordUsage appends one consumption event. Callers invoke it only
	// after the gated operation actually succeeded.
	RecordUsage(ctx context.Context, userID uuid.UUID, req *usage.CreateRecordRequest) (*usage.Record, error)
	// GetUsageSummary reports the user's month-to-date consumption per
	// resource against the plan's limits.
	GetUsageSummary(ctx context.Context, userID uuid.UUID) ([]*usage.ResourceSummary, error)
	// ListRecords returns raw usage records matching filter plus the
	// total count.
	ListRecords(ctx context.Context, filter *usage.Filter) ([]*usage.Record, int, error)
}
