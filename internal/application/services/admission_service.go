package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// AdmissionService runs the combined pipeline for sibling services that
// call the check endpoint instead of sitting behind the middleware chain.
// Steps run cheapest-first: rate limit, plan tier, feature, quota. The
// first refusal wins and no later, more expensive lookup runs after it.
type AdmissionService struct {
	rateLimiter  ports.RateLimiterService
	entitlements ports.EntitlementService
	quota        ports.QuotaService
	policy       *ratelimit.Policy
	logger       *logrus.Logger
}

func NewAdmissionService(rateLimiter ports.RateLimiterService, entitlements ports.EntitlementService, quota ports.QuotaService, policy *ratelimit.Policy, logger *logrus.Logger) ports.AdmissionService {
	return &AdmissionService{
		rateLimiter:  rateLimiter,
		entitlements: entitlements,
		quota:        quota,
		policy:       policy,
		logger:       logger,
	}
}

func (s *AdmissionService) Check(ctx context.Context, req *admission.CheckRequest) (*admission.CheckResult, error) {
	info := req.Info()

	var decision *ratelimit.Decision
	if req.MaxRequests != nil {
		// Per-call cap override travels as a parameter; the shared policy
		// stays untouched.
		decision, _ = s.rateLimiter.AdmitWithLimit(ctx, s.policy, info, *req.MaxRequests)
	} else {
		decision, _ = s.rateLimiter.Admit(ctx, s.policy, info)
	}

	result := &admission.CheckResult{RateLimit: decision}
	if !decision.Allowed {
		return s.deny(result, &admission.Denial{
			Code:       admission.CodeRateLimitExceeded,
			Message:    "rate limit exceeded",
			RetryAfter: int(decision.RetryAfter / time.Second),
		}), nil
	}

	if req.MinimumPlan != "" {
		if req.UserID == nil {
			return s.deny(result, &admission.Denial{
				Code:         admission.CodePlanUpgradeRequired,
				Message:      "a subscription is required",
				CurrentPlan:  plan.Free.String(),
				RequiredPlan: plan.Normalize(string(req.MinimumPlan)).String(),
			}), nil
		}
		if err := s.entitlements.RequirePlan(ctx, *req.UserID, plan.Normalize(string(req.MinimumPlan))); err != nil {
			return s.deny(result, s.asDenial(err, admission.CodePlanUpgradeRequired)), nil
		}
	}

	if req.Resource != "" && req.Action != "" {
		if req.UserID == nil {
			return s.deny(result, &admission.Denial{
				Code:        admission.CodeFeatureNotAvailable,
				Message:     "a subscription is required",
				CurrentPlan: plan.Free.String(),
			}), nil
		}
		if err := s.entitlements.RequireFeature(ctx, *req.UserID, req.Resource, req.Action); err != nil {
			return s.deny(result, s.asDenial(err, admission.CodeFeatureNotAvailable)), nil
		}
	}

	if req.Resource != "" && req.UserID != nil {
		qd, err := s.quota.CheckQuota(ctx, *req.UserID, req.Resource)
		if err != nil {
			// CheckQuota resolves store faults internally; an error here is
			// unexpected but still must not block admission.
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"user_id": req.UserID, "resource": req.Resource}).WithError(err).Warn("admission: quota check failed; allowing")
			}
		} else {
			result.Quota = qd
			if !qd.Allowed {
				return s.deny(result, &admission.Denial{
					Code:         admission.CodeUsageLimitExceeded,
					Message:      "monthly usage limit exceeded",
					ResetDate:    &qd.ResetDate,
					CurrentUsage: &qd.CurrentUsage,
					Limit:        &qd.Limit,
				}), nil
			}
		}
	}

	result.Allowed = true
	return result, nil
}

func (s *AdmissionService) deny(result *admission.CheckResult, d *admission.Denial) *admission.CheckResult {
	result.Allowed = false
	result.Denial = d
	return result
}

// asDenial unwraps a gate refusal; anything else is treated as a denial
// with the step's code, keeping the gate deny-by-default.
func (s *AdmissionService) asDenial(err error, code admission.Code) *admission.Denial {
	var d *admission.Denial
	if errors.As(err, &d) {
		return d
	}
	if s.logger != nil {
		s.logger.WithError(err).Error("admission: unexpected gate error")
	}
	return &admission.Denial{Code: code, Message: err.Error()}
}
