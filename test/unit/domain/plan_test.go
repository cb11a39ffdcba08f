package domain_test

import (
	"testing"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
)

func TestNormalize(t *testing.T) {
	cases := map[string]plan.Name{
		"free":       plan.Free,
		"Basic":      plan.Basic,
		"  PRO  ":    plan.Pro,
		"ENTERPRISE": plan.Enterprise,
		"platinum":   plan.Free,
		"":           plan.Free,
	}
	for in, want := range cases {
		if got := plan.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAtLeast(t *testing.T) {
	if !plan.Pro.AtLeast(plan.Basic) {
		t.Error("pro should satisfy basic")
	}
	if !plan.Pro.AtLeast(plan.Pro) {
		t.Error("pro should satisfy itself")
	}
	if plan.Basic.AtLeast(plan.Enterprise) {
		t.Error("basic should not satisfy enterprise")
	}
	// Unknown names rank with free on both sides of the comparison.
	if plan.Name("platinum").AtLeast(plan.Basic) {
		t.Error("unknown plan should rank as free")
	}
	if !plan.Enterprise.AtLeast(plan.Name("platinum")) {
		t.Error("enterprise should satisfy an unknown minimum")
	}
}

func TestHasFeature(t *testing.T) {
	p := &plan.Plan{
		Name:     plan.Pro,
		Features: map[string][]string{"usage": {"read_all"}},
	}
	if !p.HasFeature("usage", "read_all") {
		t.Error("expected feature grant")
	}
	if p.HasFeature("usage", "manage") {
		t.Error("unexpected action grant")
	}
	if p.HasFeature("plans", "manage") {
		t.Error("unexpected resource grant")
	}

	var nilPlan *plan.Plan
	if nilPlan.HasFeature("usage", "read_all") {
		t.Error("nil plan should grant nothing")
	}
}

func TestLimit(t *testing.T) {
	p := &plan.Plan{
		Name:   plan.Basic,
		Limits: map[string]int{"api_calls": 1000},
	}
	limit, capped := p.Limit("api_calls")
	if !capped || limit != 1000 {
		t.Errorf("Limit(api_calls) = (%d, %v), want (1000, true)", limit, capped)
	}
	if _, capped := p.Limit("exports"); capped {
		t.Error("absent resource should be uncapped")
	}

	var nilPlan *plan.Plan
	if _, capped := nilPlan.Limit("api_calls"); capped {
		t.Error("nil plan should be uncapped")
	}
}
