package subscription

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Subscription binds a user to a plan. Exactly one subscription row exists
// per user; users without a row are treated as unsubscribed by the quota
// checker and as unentitled by the feature gate.
type Subscription struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	PlanID      uuid.UUID `json:"plan_id" db:"plan_id"`
	Status      Status    `json:"status" db:"status"`
	NotifyEmail string    `json:"notify_email" db:"notify_email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// ValidTransitions returns the valid status transitions from current status
func (s Status) ValidTransitions() []Status {
	switch s {
	case StatusActive:
		return []Status{StatusPastDue, StatusCanceled}
	case StatusPastDue:
		return []Status{StatusActive, StatusCanceled}
	case StatusCanceled:
		return []Status{} // No transitions from canceled
	default:
		return []Status{}
	}
}

// IsValidTransition checks if transition to new status is valid
func (s Status) IsValidTransition(newStatus Status) bool {
	return slices.Contains(s.ValidTransitions(), newStatus)
}

// Entitled reports whether the subscription still grants its plan.
// Past-due subscriptions keep access during the dunning grace period;
// canceled ones are equivalent to having no subscription.
func (s *Subscription) Entitled() bool {
	if s == nil {
		return false
	}
	return s.Status == StatusActive || s.Status == StatusPastDue
}

// CreateSubscriptionRequest represents the request to subscribe a user to a plan
type CreateSubscriptionRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	PlanID      uuid.UUID `json:"plan_id" validate:"required"`
	NotifyEmail string    `json:"notify_email" validate:"omitempty,email"`
}

// UpdateSubscriptionRequest represents the request to update a subscription
type UpdateSubscriptionRequest struct {
	PlanID      *uuid.UUID `json:"plan_id,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	NotifyEmail *string    `json:"notify_email,omitempty" validate:"omitempty,email"`
}
