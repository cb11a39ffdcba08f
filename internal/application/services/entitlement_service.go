package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// EntitlementService gates access by plan tier and by feature grant. The
// comparison itself is pure and in-memory; only resolving the caller's
// plan touches storage, and a resolve failure degrades to the free tier
// so a misconfigured or unreachable subscription row never grants
// elevated access.
type EntitlementService struct {
	subscriptionService ports.SubscriptionService
	logger              *logrus.Logger
}

func NewEntitlementService(subscriptionService ports.SubscriptionService, logger *logrus.Logger) ports.EntitlementService {
	return &EntitlementService{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// RequirePlan returns nil when userID's plan sits at or above minimum in
// the upgrade order. The denial is returned, not raised: it is an
// expected outcome, not an error condition.
func (s *EntitlementService) RequirePlan(ctx context.Context, userID uuid.UUID, minimum plan.Name) error {
	current := s.resolveTier(ctx, userID)
	if current.AtLeast(minimum) {
		return nil
	}
	return &admission.Denial{
		Code:         admission.CodePlanUpgradeRequired,
		Message:      fmt.Sprintf("the %s plan or higher is required", minimum),
		CurrentPlan:  current.String(),
		RequiredPlan: minimum.String(),
	}
}

// RequireFeature returns nil when userID's plan grants action on resource.
// No subscription means no features.
func (s *EntitlementService) RequireFeature(ctx context.Context, userID uuid.UUID, resource, action string) error {
	p := s.resolve(ctx, userID)
	if p.HasFeature(resource, action) {
		return nil
	}

	current := plan.Free
	if p != nil {
		current = plan.Normalize(string(p.Name))
	}
	return &admission.Denial{
		Code:        admission.CodeFeatureNotAvailable,
		Message:     fmt.Sprintf("your plan does not include %s on %s", action, resource),
		CurrentPlan: current.String(),
	}
}

// GetEntitlements resolves the caller's effective plan. Users without an
// entitling subscription resolve to (nil, nil).
func (s *EntitlementService) GetEntitlements(ctx context.Context, userID uuid.UUID) (*plan.Plan, error) {
	return s.subscriptionService.ResolvePlan(ctx, userID)
}

// resolve returns the caller's plan, or nil on any failure. Gate checks
// must never turn a store fault into elevated access or a 5xx.
func (s *EntitlementService) resolve(ctx context.Context, userID uuid.UUID) *plan.Plan {
	p, err := s.subscriptionService.ResolvePlan(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("entitlements: plan resolution failed; treating as free tier")
		}
		return nil
	}
	return p
}

func (s *EntitlementService) resolveTier(ctx context.Context, userID uuid.UUID) plan.Name {
	p := s.resolve(ctx, userID)
	if p == nil {
		return plan.Free
	}
	if !p.Name.IsValid() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "plan_name": p.Name}).Warn("entitlements: unknown plan name; treating as free tier")
		}
	}
	return plan.Normalize(string(p.Name))
}
