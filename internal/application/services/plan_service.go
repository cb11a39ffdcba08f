package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

type PlanService struct {
	repo   ports.PlanRepository
	logger *logrus.Logger
}

func NewPlanService(repo ports.PlanRepository, logger *logrus.Logger) ports.PlanService {
	return &PlanService{
		repo:   repo,
		logger: logger,
	}
}

func (s *PlanService) CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.Plan, error) {
	if !req.Name.IsValid() {
		return nil, fmt.Errorf("unknown plan name '%s'", req.Name)
	}

	// One row per tier name
	if existing, err := s.repo.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("plan '%s' already exists", req.Name)
	}

	p := &plan.Plan{
		ID:        uuid.New(),
		Name:      req.Name,
		Features:  req.Features,
		Limits:    req.Limits,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"name": req.Name}).WithError(err).Error("failed to create plan in repo")
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"name": p.Name, "id": p.ID}).Info("plan created")
	}
	return p, nil
}

func (s *PlanService) GetPlan(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PlanService) GetPlanByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *PlanService) UpdatePlan(ctx context.Context, id uuid.UUID, req *plan.UpdatePlanRequest) (*plan.Plan, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Features != nil {
		p.Features = *req.Features
	}
	if req.Limits != nil {
		p.Limits = *req.Limits
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"id": id, "name": p.Name}).WithError(err).Error("failed to update plan in repo")
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"id": id, "name": p.Name}).Info("plan updated")
	}
	return p, nil
}

func (s *PlanService) DeletePlan(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *PlanService) ListPlans(ctx context.Context) ([]*plan.Plan, error) {
	return s.repo.List(ctx)
}
