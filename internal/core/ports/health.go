package ports

import "context"

// HealthChecker abstracts a dependency health probe. Implementations
// should return error if unhealthy. The admission path never consults
// these; a degraded dependency degrades through fail-open instead.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
