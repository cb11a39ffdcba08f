package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
)

// PlanRepository defines the interface for plan data operations
type PlanRepository interface {
	Create(ctx context.Context, p *plan.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	GetByName(ctx context.Context, name plan.Name) (*plan.Plan, error)
	Update(ctx context.Context, p *plan.Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*plan.Plan, error)
}

// PlanService defines the interface for plan business logic
type PlanService interface {
	CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	GetPlanByName(ctx context.Context, name plan.Name) (*plan.Plan, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, req *plan.UpdatePlanRequest) (*plan.Plan, error)
	DeletePlan(ctx context.Context, id uuid.UUID) error
	ListPlans(ctx context.Context) ([]*plan.Plan, error)
}
