package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
)

// EntitlementService defines plan-tier and feature gating checks. Refusals
// are returned as *admission.Denial so infrastructure can render them
// without importing application-level implementations.
type EntitlementService interface {
	// RequirePlan returns nil when userID's plan sits at or above minimum
	// in the upgrade order. Users without an entitling subscription and
	// unknown plan names rank with the free tier.
	RequirePlan(ctx context.Context, userID uuid.UUID, minimum plan.Name) error
	// RequireFeature returns nil when userID's plan grants action on
	// resource. No subscription means no features.
	RequireFeature(ctx context.Context, userID uuid.UUID, resource, action string) error
	// GetEntitlements resolves the caller's effective plan. Users without
	// an entitling subscription resolve to (nil, nil).
	GetEntitlements(ctx context.Context, userID uuid.UUID) (*plan.Plan, error)
}
