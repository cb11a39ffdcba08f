package ports

import (
	"context"

	"github.com/jobdeck/gatekeeper/internal/core/domain/admission"
)

// AdmissionService runs the combined admission pipeline for sibling
// services that cannot sit behind the middleware chain. Steps execute in
// strict order: rate limit, plan tier, feature, quota. The first refusal
// wins and later, more expensive steps are skipped.
type AdmissionService interface {
	Check(ctx context.Context, req *admission.CheckRequest) (*admission.CheckResult, error)
}
