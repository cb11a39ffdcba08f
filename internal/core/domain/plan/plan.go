package plan

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan describes one subscription tier: its position in the upgrade order,
// the feature actions it unlocks per resource, and the monthly allowance it
// imposes per resource. A resource absent from Limits is uncapped.
type Plan struct {
	ID        uuid.UUID           `json:"id" db:"id"`
	Name      Name                `json:"name" db:"name"`
	Features  map[string][]string `json:"features" db:"features"`
	Limits    map[string]int      `json:"limits" db:"limits"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`
}

type Name string

const (
	Free       Name = "free"
	Basic      Name = "basic"
	Pro        Name = "pro"
	Enterprise Name = "enterprise"
)

// ranks orders the tiers from least to most privileged. Names missing from
// the map rank alongside free so an unrecognized plan never unlocks paid
// surface.
var ranks = map[Name]int{
	Free:       0,
	Basic:      1,
	Pro:        2,
	Enterprise: 3,
}

// Normalize maps an arbitrary plan string onto a known Name. Matching is
// case-insensitive; anything unrecognized normalizes to Free.
func Normalize(s string) Name {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := ranks[n]; ok {
		return n
	}
	return Free
}

func (n Name) String() string {
	return string(n)
}

func (n Name) IsValid() bool {
	_, ok := ranks[n]
	return ok
}

// Rank returns the tier's position in the upgrade order. Unknown names
// rank 0, the same as free.
func (n Name) Rank() int {
	return ranks[Normalize(string(n))]
}

// AtLeast reports whether n sits at or above minimum in the upgrade order.
func (n Name) AtLeast(minimum Name) bool {
	return n.Rank() >= minimum.Rank()
}

// HasFeature reports whether the plan grants action on resource.
// A nil plan grants nothing.
func (p *Plan) HasFeature(resource, action string) bool {
	if p == nil {
		return false
	}
	actions, ok := p.Features[resource]
	if !ok {
		return false
	}
	return slices.Contains(actions, action)
}

// Limit returns the monthly allowance for resource. capped is false when
// the plan does not restrict the resource at all.
func (p *Plan) Limit(resource string) (limit int, capped bool) {
	if p == nil {
		return 0, false
	}
	limit, capped = p.Limits[resource]
	return limit, capped
}

// CreatePlanRequest represents the request to create a new plan
type CreatePlanRequest struct {
	Name     Name                `json:"name" validate:"required,oneof=free basic pro enterprise"`
	Features map[string][]string `json:"features"`
	Limits   map[string]int      `json:"limits"`
}

// UpdatePlanRequest represents the request to update a plan
type UpdatePlanRequest struct {
	Features *map[string][]string `json:"features,omitempty"`
	Limits   *map[string]int      `json:"limits,omitempty"`
}
