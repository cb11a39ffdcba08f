package admission

import (
	"time"

	"github.com/google/uuid"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/ratelimit"
	"github.com/jobdeck/gatekeeper/internal/core/domain/usage"
)

// Code identifies why a request was refused. Codes are part of the wire
// contract; clients switch on them to render upsells and retry hints.
type Code string

const (
	CodeRateLimitExceeded   Code = "RATE_LIMIT_EXCEEDED"
	CodeUsageLimitExceeded  Code = "USAGE_LIMIT_EXCEEDED"
	CodePlanUpgradeRequired Code = "PLAN_UPGRADE_REQUIRED"
	CodeFeatureNotAvailable Code = "FEATURE_NOT_AVAILABLE"
)

// Denial describes a refusal and what the caller can do about it. It
// implements error so gates can return it through ordinary error paths;
// the serving layer renders it as the structured response body.
type Denial struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// RetryAfter is the whole-second wait before the rate limit window
	// rolls over. Zero when the denial is not time based.
	RetryAfter int `json:"retryAfter,omitempty"`
	// ResetDate is when a usage quota starts over.
	ResetDate    *time.Time `json:"resetDate,omitempty"`
	CurrentUsage *int       `json:"currentUsage,omitempty"`
	Limit        *int       `json:"limit,omitempty"`
	CurrentPlan  string     `json:"currentPlan,omitempty"`
	RequiredPlan string     `json:"requiredPlan,omitempty"`
}

func (d *Denial) Error() string {
	return d.Message
}

// CheckRequest is the admission question a sibling service asks on behalf
// of one of its requests. Rate limiting always runs; the plan, feature and
// quota steps run only when their inputs are present.
type CheckRequest struct {
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	IP        string     `json:"ip" validate:"required"`
	Method    string     `json:"method" validate:"required"`
	Path      string     `json:"path" validate:"required"`
	UserAgent string     `json:"user_agent"`
	// Resource and Action select the feature gate; Resource alone selects
	// the quota check.
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
	// MinimumPlan selects the plan tier gate.
	MinimumPlan plan.Name `json:"minimum_plan,omitempty"`
	// MaxRequests overrides the rate policy's cap for this call only.
	// The shared policy is never mutated.
	MaxRequests *int `json:"max_requests,omitempty"`
}

// Info returns the request attributes rate limit key functions consume.
func (r *CheckRequest) Info() ratelimit.RequestInfo {
	info := ratelimit.RequestInfo{
		IP:        r.IP,
		Method:    r.Method,
		Path:      r.Path,
		UserAgent: r.UserAgent,
	}
	if r.UserID != nil {
		info.UserID = r.UserID.String()
	}
	return info
}

// CheckResult is the outcome of one pipeline run. Denial is nil when the
// request was admitted.
type CheckResult struct {
	Allowed   bool                 `json:"allowed"`
	Denial    *Denial              `json:"denial,omitempty"`
	RateLimit *ratelimit.Decision  `json:"rate_limit,omitempty"`
	Quota     *usage.QuotaDecision `json:"quota,omitempty"`
}
