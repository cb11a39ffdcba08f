package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/domain/subscription"
	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

// CounterStoreMock is a lightweight mock for CounterStore
type CounterStoreMock struct {
	GetFn       func(ctx context.Context, key string) (int64, error)
	IncrementFn func(ctx context.Context, key string, ttl time.Duration) (int64, error)
	DecrementFn func(ctx context.Context, key string) error
}

func (m *CounterStoreMock) Get(ctx context.Context, key string) (int64, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return 0, nil
}
func (m *CounterStoreMock) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if m.IncrementFn != nil {
		return m.IncrementFn(ctx, key, ttl)
	}
	return 1, nil
}
func (m *CounterStoreMock) Decrement(ctx context.Context, key string) error {
	if m.DecrementFn != nil {
		return m.DecrementFn(ctx, key)
	}
	return nil
}

// PlanRepositoryMock is a lightweight mock for PlanRepository
type PlanRepositoryMock struct {
	CreateFn    func(ctx context.Context, p *plan.Plan) error
	GetByIDFn   func(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
	GetByNameFn func(ctx context.Context, name plan.Name) (*plan.Plan, error)
	UpdateFn    func(ctx context.Context, p *plan.Plan) error
	DeleteFn    func(ctx context.Context, id uuid.UUID) error
	ListFn      func(ctx context.Context) ([]*plan.Plan, error)
}

func (m *PlanRepositoryMock) Create(ctx context.Context, p *plan.Plan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}
func (m *PlanRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("plan not found")
}
func (m *PlanRepositoryMock) GetByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, name)
	}
	return nil, fmt.Errorf("plan not found")
}
func (m *PlanRepositoryMock) Update(ctx context.Context, p *plan.Plan) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, p)
	}
	return nil
}
func (m *PlanRepositoryMock) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}
func (m *PlanRepositoryMock) List(ctx context.Context) ([]*plan.Plan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

// SubscriptionRepositoryMock is a lightweight mock for SubscriptionRepository
type SubscriptionRepositoryMock struct {
	CreateFn      func(ctx context.Context, sub *subscription.Subscription) error
	GetByIDFn     func(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	GetByUserIDFn func(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
	UpdateFn      func(ctx context.Context, sub *subscription.Subscription) error
	DeleteFn      func(ctx context.Context, id uuid.UUID) error
}

func (m *SubscriptionRepositoryMock) Create(ctx context.Context, sub *subscription.Subscription) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, sub)
	}
	return nil
}
func (m *SubscriptionRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("subscription not found")
}
func (m *SubscriptionRepositoryMock) GetByUserID(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *SubscriptionRepositoryMock) Update(ctx context.Context, sub *subscription.Subscription) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, sub)
	}
	return nil
}
func (m *SubscriptionRepositoryMock) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// UsageRepositoryMock is a lightweight mock for UsageRepository
type UsageRepositoryMock struct {
	CreateFn     func(ctx context.Context, record *usage.Record) error
	ListFn       func(ctx context.Context, filter *usage.Filter) ([]*usage.Record, error)
	CountFn      func(ctx context.Context, filter *usage.Filter) (int, error)
	CountSinceFn func(ctx context.Context, userID uuid.UUID, resourceType string, since time.Time) (int, error)
}

func (m *UsageRepositoryMock) Create(ctx context.Context, record *usage.Record) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, record)
	}
	return nil
}
func (m *UsageRepositoryMock) List(ctx context.Context, filter *usage.Filter) ([]*usage.Record, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, nil
}
func (m *UsageRepositoryMock) Count(ctx context.Context, filter *usage.Filter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, filter)
	}
	return 0, nil
}
func (m *UsageRepositoryMock) CountSince(ctx context.Context, userID uuid.UUID, resourceType string, since time.Time) (int, error) {
	if m.CountSinceFn != nil {
		return m.CountSinceFn(ctx, userID, resourceType, since)
	}
	return 0, nil
}

// CacheMock is a lightweight mock for Cache
type CacheMock struct {
	GetFn    func(ctx context.Context, key string) ([]byte, bool, error)
	SetFn    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNXFn  func(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DeleteFn func(ctx context.Context, key string) error
}

func (m *CacheMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false, nil
}
func (m *CacheMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return nil
}
func (m *CacheMock) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if m.SetNXFn != nil {
		return m.SetNXFn(ctx, key, value, ttl)
	}
	return true, nil
}
func (m *CacheMock) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return nil
}

// EmailServiceMock is a lightweight mock for EmailService
type EmailServiceMock struct {
	SendQuotaExhaustedEmailFn func(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error
	SendQuotaWarningEmailFn   func(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error
}

func (m *EmailServiceMock) SendQuotaExhaustedEmail(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error {
	if m.SendQuotaExhaustedEmailFn != nil {
		return m.SendQuotaExhaustedEmailFn(ctx, email, resourceType, used, limit, resetDate)
	}
	return nil
}
func (m *EmailServiceMock) SendQuotaWarningEmail(ctx context.Context, email, resourceType string, used, limit int, resetDate time.Time) error {
	if m.SendQuotaWarningEmailFn != nil {
		return m.SendQuotaWarningEmailFn(ctx, email, resourceType, used, limit, resetDate)
	}
	return nil
}

// RateLimiterServiceMock is a lightweight mock for RateLimiterService
type RateLimiterServiceMock struct {
	AdmitFn          func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error)
	AdmitWithLimitFn func(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo, maxRequests int) (*ratelimit.Decision, error)
	ReconcileFn      func(ctx context.Context, policy *ratelimit.Policy, decision *ratelimit.Decision, success bool)
}

func (m *RateLimiterServiceMock) Admit(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo) (*ratelimit.Decision, error) {
	if m.AdmitFn != nil {
		return m.AdmitFn(ctx, policy, info)
	}
	return &ratelimit.Decision{Allowed: true, Limit: policy.MaxRequests, Remaining: policy.MaxRequests - 1}, nil
}
func (m *RateLimiterServiceMock) AdmitWithLimit(ctx context.Context, policy *ratelimit.Policy, info ratelimit.RequestInfo, maxRequests int) (*ratelimit.Decision, error) {
	if m.AdmitWithLimitFn != nil {
		return m.AdmitWithLimitFn(ctx, policy, info, maxRequests)
	}
	return &ratelimit.Decision{Allowed: true, Limit: maxRequests, Remaining: maxRequests - 1}, nil
}
func (m *RateLimiterServiceMock) Reconcile(ctx context.Context, policy *ratelimit.Policy, decision *ratelimit.Decision, success bool) {
	if m.ReconcileFn != nil {
		m.ReconcileFn(ctx, policy, decision, success)
	}
}

// EntitlementServiceMock is a lightweight mock for EntitlementService
type EntitlementServiceMock struct {
	RequirePlanFn     func(ctx context.Context, userID uuid.UUID, minimum plan.Name) error
	RequireFeatureFn  func(ctx context.Context, userID uuid.UUID, resource, action string) error
	GetEntitlementsFn func(ctx context.Context, userID uuid.UUID) (*plan.Plan, error)
}

func (m *EntitlementServiceMock) RequirePlan(ctx context.Context, userID uuid.UUID, minimum plan.Name) error {
	if m.RequirePlanFn != nil {
		return m.RequirePlanFn(ctx, userID, minimum)
	}
	return nil
}
func (m *EntitlementServiceMock) RequireFeature(ctx context.Context, userID uuid.UUID, resource, action string) error {
	if m.RequireFeatureFn != nil {
		return m.RequireFeatureFn(ctx, userID, resource, action)
	}
	return nil
}
func (m *EntitlementServiceMock) GetEntitlements(ctx context.Context, userID uuid.UUID) (*plan.Plan, error) {
	if m.GetEntitlementsFn != nil {
		return m.GetEntitlementsFn(ctx, userID)
	}
	return nil, nil
}

// QuotaServiceMock is a lightweight mock for QuotaService
type QuotaServiceMock struct {
	CheckQuotaFn      func(ctx context.Context, userID uuid.UUID, resourceType string) (*usage.QuotaDecision, error)
	RecordUsageFn     func(ctx context.Context, userID uuid.UUID, req *usage.CreateRecordRequest) (*usage.Record, error)
	GetUsageSummaryFn func(ctx context.Context, userID uuid.UUID) ([]*usage.ResourceSummary, error)
	ListRecordsFn     func(ctx context.Context, filter *usage.Filter) ([]*usage.Record, int, error)
}

func (m *QuotaServiceMock) CheckQuota(ctx context.Context, userID uuid.UUID, resourceType string) (*usage.QuotaDecision, error) {
	if m.CheckQuotaFn != nil {
		return m.CheckQuotaFn(ctx, userID, resourceType)
	}
	return &usage.QuotaDecision{Allowed: true, Unlimited: true}, nil
}
func (m *QuotaServiceMock) RecordUsage(ctx context.Context, userID uuid.UUID, req *usage.CreateRecordRequest) (*usage.Record, error) {
	if m.RecordUsageFn != nil {
		return m.RecordUsageFn(ctx, userID, req)
	}
	return &usage.Record{ID: uuid.New(), UserID: userID, ResourceType: req.ResourceType, CreatedAt: time.Now().UTC()}, nil
}
func (m *QuotaServiceMock) GetUsageSummary(ctx context.Context, userID uuid.UUID) ([]*usage.ResourceSummary, error) {
	if m.GetUsageSummaryFn != nil {
		return m.GetUsageSummaryFn(ctx, userID)
	}
	return nil, nil
}
func (m *QuotaServiceMock) ListRecords(ctx context.Context, filter *usage.Filter) ([]*usage.Record, int, error) {
	if m.ListRecordsFn != nil {
		return m.ListRecordsFn(ctx, filter)
	}
	return nil, 0, nil
}

// AdmissionServiceMock is a lightweight mock for AdmissionService
type AdmissionServiceMock struct {
	CheckFn func(ctx context.Context, req *admission.CheckRequest) (*admission.CheckResult, error)
}

func (m *AdmissionServiceMock) Check(ctx context.Context, req *admission.CheckRequest) (*admission.CheckResult, error) {
	if m.CheckFn != nil {
		return m.CheckFn(ctx, req)
	}
	return &admission.CheckResult{Allowed: true}, nil
}

var _ ports.CounterStore = (*CounterStoreMock)(nil)
var _ ports.PlanRepository = (*PlanRepositoryMock)(nil)
var _ ports.SubscriptionRepository = (*SubscriptionRepositoryMock)(nil)
var _ ports.UsageRepository = (*UsageRepositoryMock)(nil)
var _ ports.Cache = (*CacheMock)(nil)
var _ ports.EmailService = (*EmailServiceMock)(nil)
var _ ports.RateLimiterService = (*RateLimiterServiceMock)(nil)
var _ ports.EntitlementService = (*EntitlementServiceMock)(nil)
var _ ports.QuotaService = (*QuotaServiceMock)(nil)
var _ ports.AdmissionService = (*AdmissionServiceMock)(nil)
