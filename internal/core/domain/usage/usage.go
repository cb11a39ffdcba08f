package usage

import (
	"time"

	"github.com/google/uuid"
)

// Record is one consumption event of a metered resource. Rows are
// append-only: monthly usage is derived by counting rows inside the
// current calendar month, never by mutating a counter.
type Record struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CreateRecordRequest represents the request to record a consumption event
type CreateRecordRequest struct {
	ResourceType string `json:"resource_type" validate:"required"`
}

// Filter represents filters for querying usage records
type Filter struct {
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType *string    `json:"resource_type,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

// QuotaDecision reports the outcome of a quota check. ResetDate is the
// first instant of the next calendar month, when the count starts from
// zero again.
type QuotaDecision struct {
	Allowed      bool      `json:"allowed"`
	Unlimited    bool      `json:"unlimited"`
	CurrentUsage int       `json:"current_usage"`
	Limit        int       `json:"limit"`
	ResetDate    time.Time `json:"reset_date"`
}

// ResourceSummary is one row of a user's monthly usage report.
// Limit is nil when the plan does not cap the resource.
type ResourceSummary struct {
	ResourceType string    `json:"resource_type"`
	Used         int       `json:"used"`
	Limit        *int      `json:"limit,omitempty"`
	ResetDate    time.Time `json:"reset_date"`
}

// MonthStart returns the first instant of now's calendar month in UTC.
// Quota windows are calendar months, not rolling 30-day periods.
func MonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonthStart returns the first instant of the following calendar month
// in UTC. Quota denials surface it as the reset date.
func NextMonthStart(now time.Time) time.Time {
	return MonthStart(now).AddDate(0, 1, 0)
}
