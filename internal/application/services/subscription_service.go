package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/subscription"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

type SubscriptionService struct {
	repo     ports.SubscriptionRepository
	planRepo ports.PlanRepository
	logger   *logrus.Logger
}

func NewSubscriptionService(repo ports.SubscriptionRepository, planRepo ports.PlanRepository, logger *logrus.Logger) ports.SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		planRepo: planRepo,
		logger:   logger,
	}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, req *subscription.CreateSubscriptionRequest) (*subscription.Subscription, error) {
	if _, err := s.planRepo.GetByID(ctx, req.PlanID); err != nil {
		return nil, fmt.Errorf("plan not found")
	}

	existing, err := s.repo.GetByUserID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user already has a subscription")
	}

	sub := &subscription.Subscription{
		ID:          uuid.New(),
		UserID:      req.UserID,
		PlanID:      req.PlanID,
		Status:      subscription.StatusActive,
		NotifyEmail: req.NotifyEmail,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": req.UserID, "plan_id": req.PlanID}).WithError(err).Error("failed to create subscription in repo")
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": sub.UserID, "plan_id": sub.PlanID, "id": sub.ID}).Info("subscription created")
	}
	return sub, nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *SubscriptionService) GetUserSubscription(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subscription not found")
	}
	return sub, nil
}

func (s *SubscriptionService) UpdateSubscription(ctx context.Context, userID uuid.UUID, req *subscription.UpdateSubscriptionRequest) (*subscription.Subscription, error) {
	sub, err := s.GetUserSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.PlanID != nil {
		if _, err := s.planRepo.GetByID(ctx, *req.PlanID); err != nil {
			return nil, fmt.Errorf("plan not found")
		}
		sub.PlanID = *req.PlanID
	}
	if req.Status != nil {
		if !sub.Status.IsValidTransition(*req.Status) {
			return nil, fmt.Errorf("invalid status transition from %s to %s", sub.Status, *req.Status)
		}
		sub.Status = *req.Status
	}
	if req.NotifyEmail != nil {
		sub.NotifyEmail = *req.NotifyEmail
	}
	sub.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, sub); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "id": sub.ID}).WithError(err).Error("failed to update subscription in repo")
		}
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "id": sub.ID, "status": sub.Status}).Info("subscription updated")
	}
	return sub, nil
}

func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.GetUserSubscription(ctx, userID)
	if err != nil {
		return err
	}
	if !sub.Status.IsValidTransition(subscription.StatusCanceled) {
		return fmt.Errorf("subscription is already canceled")
	}

	sub.Status = subscription.StatusCanceled
	sub.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "id": sub.ID}).Info("subscription canceled")
	}
	return nil
}

// ResolvePlan returns the plan the user's subscription currently grants.
// No row, or a row that no longer entitles, resolves to (nil, nil).
func (s *SubscriptionService) ResolvePlan(ctx context.Context, userID uuid.UUID) (*plan.Plan, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription: %w", err)
	}
	if sub == nil || !sub.Entitled() {
		return nil, nil
	}

	p, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}
	return p, nil
}
