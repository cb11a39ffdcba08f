package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/subscription"
)

// SubscriptionRepository defines the interface for subscription data operations
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *subscription.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
	Update(ctx context.Context, sub *subscription.Subscription) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubscriptionService defines the interface for subscription business logic
type SubscriptionService interface {
	Subscribe(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	GetUserSubscription(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, userID uuid.UUID, req *subscription.UpdateSubscriptionRequest) (*subscription.Subscription, error)
	CancelSubscription(ctx context.Context, userID uuid.UUID) error
	// ResolvePlan returns the plan the user's subscription currently
	// grants. Users without an entitling subscription resolve to
	// (nil, nil); callers decide whether that means free tier or denial.
	ResolvePlan(ctx context.Context, userID uuid.UUID) (*plan.Plan, error)
}
