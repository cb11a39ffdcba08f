package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// QuotaService checks monthly resource allowances against append-only
// usage records. Checking and recording are deliberately separate calls:
// the gated operation records consumption only after it succeeded, so a
// checked-but-failed operation never burns quota. Two concurrent checks
// near the limit can both pass; the overshoot is bounded at one and the
// window self-corrects next month.
type QuotaService struct {
	subscriptionRepo ports.SubscriptionRepository
	planRepo         ports.PlanRepository
	usageRepo        ports.UsageRepository
	cache            ports.Cache
	emailService     ports.EmailService
	logger           *logrus.Logger
}

func NewQuotaService(subscriptionRepo ports.SubscriptionRepository, planRepo ports.PlanRepository, usageRepo ports.UsageRepository, cache ports.Cache, emailService ports.EmailService, logger *logrus.Logger) ports.QuotaService {
	return &QuotaService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		usageRepo:        usageRepo,
		cache:            cache,
		emailService:     emailService,
		logger:           logger,
	}
}

// CheckQuota reports whether user may consume one more unit of resource
// this calendar month. Store faults on this path resolve to the unlimited
// default rather than an error; quota is a soft business allowance, not a
// safety limit.
func (s *QuotaService) CheckQuota(ctx context.Context, userID uuid.UUID, resourceType string) (*usage.QuotaDecision, error) {
	now := time.Now()

	sub, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("quota: subscription lookup failed; treating as unlimited")
		}
		return s.unlimited(now), nil
	}
	if sub == nil || !sub.Entitled() {
		return s.unlimited(now), nil
	}

	p, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "plan_id": sub.PlanID}).WithError(err).Warn("quota: plan lookup failed; treating as unlimited")
		}
		return s.unlimited(now), nil
	}

	limit, capped := p.Limit(resourceType)
	if !capped {
		return s.unlimited(now), nil
	}

	currentUsage, err := s.usageRepo.CountSince(ctx, userID, resourceType, usage.MonthStart(now))
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "resource_type": resourceType}).WithError(err).Warn("quota: usage count failed; treating as unlimited")
		}
		return s.unlimited(now), nil
	}

	decision := &usage.QuotaDecision{
		Allowed:      currentUsage < limit,
		CurrentUsage: currentUsage,
		Limit:        limit,
		ResetDate:    usage.NextMonthStart(now),
	}

	if !decision.Allowed {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "resource_type": resourceType, "usage": currentUsage, "limit": limit}).Info("quota: monthly limit reached")
		}
		s.notifyExhausted(ctx, sub.NotifyEmail, userID, resourceType, currentUsage, limit, decision.ResetDate)
	}

	return decision, nil
}

// RecordUsage appends one consumption event. Callers invoke it only after
// the gated operation actually succeeded.
func (s *QuotaService) RecordUsage(ctx context.Context, userID uuid.UUID, req *usage.CreateRecordRequest) (*usage.Record, error) {
	if req == nil || req.ResourceType == "" {
		return nil, fmt.Errorf("resource type is required")
	}

	record := &usage.Record{
		ID:           uuid.New(),
		UserID:       userID,
		ResourceType: req.ResourceType,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.usageRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record usage: %w", err)
	}
	return record, nil
}

// GetUsageSummary reports the user's month-to-date consumption for every
// resource the plan caps.
func (s *QuotaService) GetUsageSummary(ctx context.Context, userID uuid.UUID) ([]*usage.ResourceSummary, error) {
	now := time.Now()
	since := usage.MonthStart(now)
	reset := usage.NextMonthStart(now)

	sub, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription: %w", err)
	}
	if sub == nil || !sub.Entitled() {
		return []*usage.ResourceSummary{}, nil
	}

	p, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	resources := make([]string, 0, len(p.Limits))
	for resource := range p.Limits {
		resources = append(resources, resource)
	}
	sort.Strings(resources)

	summaries := make([]*usage.ResourceSummary, 0, len(resources))
	for _, resource := range resources {
		used, err := s.usageRepo.CountSince(ctx, userID, resource, since)
		if err != nil {
			return nil, fmt.Errorf("failed to count usage for %s: %w", resource, err)
		}
		limit := p.Limits[resource]
		summaries = append(summaries, &usage.ResourceSummary{
			ResourceType: resource,
			Used:         used,
			Limit:        &limit,
			ResetDate:    reset,
		})
	}

	return summaries, nil
}

// ListRecords returns raw usage records matching filter plus the total count.
func (s *QuotaService) ListRecords(ctx context.Context, filter *usage.Filter) ([]*usage.Record, int, error) {
	records, err := s.usageRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.usageRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return records, count, nil
}

func (s *QuotaService) unlimited(now time.Time) *usage.QuotaDecision {
	return &usage.QuotaDecision{
		Allowed:   true,
		Unlimited: true,
		ResetDate: usage.NextMonthStart(now),
	}
}

// notifyExhausted emails the subscriber once per (user, resource, month).
// A Redis SETNX guard dedupes across process instances; any failure here
// is logged and never changes the quota decision.
func (s *QuotaService) notifyExhausted(ctx context.Context, notifyEmail string, userID uuid.UUID, resourceType string, used, limit int, resetDate time.Time) {
	if s.emailService == nil || s.cache == nil || notifyEmail == "" {
		return
	}

	guardKey := fmt.Sprintf("quota:notified:%s:%s:%s", userID, resourceType, time.Now().UTC().Format("2006-01"))
	acquired, err := s.cache.SetNX(ctx, guardKey, []byte("1"), time.Until(resetDate))
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "resource_type": resourceType}).WithError(err).Warn("quota: notification guard unavailable; skipping email")
		}
		return
	}
	if !acquired {
		return
	}

	if err := s.emailService.SendQuotaExhaustedEmail(ctx, notifyEmail, resourceType, used, limit, resetDate); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": userID, "resource_type": resourceType}).WithError(err).Warn("quota: failed to send exhausted notification")
		}
	}
}
