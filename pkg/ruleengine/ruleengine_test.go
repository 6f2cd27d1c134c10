package ruleengine

import (
	"testing"

	"github.com/rotaforge/rotaforge/pkg/model"
)

func intp(v int) *int { return &v }

func TestApply_WildcardBeforeExact(t *testing.T) {
	items := []model.DemandItem{
		{Date: "2025-12-25", Location: "main", Start: "09:00", End: "13:00", Demand: 2},
	}
	rules := []ActiveRule{
		{Date: "2025-12-25", Location: "", CreatedAt: "1", Rule: model.EventRule{Mode: model.RuleModeOverride, Value: 10, Active: true}},
		{Date: "2025-12-25", Location: "main", CreatedAt: "2", Rule: model.EventRule{Mode: model.RuleModeMultiplier, Value: 2, Active: true}},
	}
	out := Apply(items, rules)
	if out[0].Demand != 20 {
		t.Fatalf("expected wildcard override (->10) then exact multiplier (x2)=20, got %d", out[0].Demand)
	}
	if items[0].Demand != 2 {
		t.Fatal("Apply must not mutate the original items")
	}
}

func TestApply_ClampToMinMax(t *testing.T) {
	items := []model.DemandItem{{Date: "2025-12-25", Location: "main", Start: "09:00", End: "13:00", Demand: 1}}
	rules := []ActiveRule{
		{Date: "2025-12-25", Location: "main", CreatedAt: "1", Rule: model.EventRule{
			Mode: model.RuleModeMultiplier, Value: 100, Active: true, MaxDemand: intp(5),
		}},
	}
	out := Apply(items, rules)
	if out[0].Demand != 5 {
		t.Fatalf("expected demand clamped to max_demand=5, got %d", out[0].Demand)
	}
}

func TestApply_NeedsExperiencedIsMonotone(t *testing.T) {
	items := []model.DemandItem{{Date: "2025-12-25", Location: "main", Start: "09:00", End: "13:00", Demand: 1, NeedsExperienced: true}}
	rules := []ActiveRule{
		{Date: "2025-12-25", Location: "main", CreatedAt: "1", Rule: model.EventRule{
			Mode: model.RuleModeOverride, Value: 1, Active: true, NeedsExperiencedDefault: false,
		}},
	}
	out := Apply(items, rules)
	if !out[0].NeedsExperienced {
		t.Fatal("needs_experienced_default=false on the rule must never clear an already-true flag")
	}
}

func TestApply_InactiveRuleIgnored(t *testing.T) {
	items := []model.DemandItem{{Date: "2025-12-25", Location: "main", Start: "09:00", End: "13:00", Demand: 3}}
	rules := []ActiveRule{
		{Date: "2025-12-25", Location: "main", CreatedAt: "1", Rule: model.EventRule{Mode: model.RuleModeOverride, Value: 99, Active: false}},
	}
	out := Apply(items, rules)
	if out[0].Demand != 3 {
		t.Fatalf("inactive rule must not apply, got demand=%d", out[0].Demand)
	}
}

func TestApply_NeverNegative(t *testing.T) {
	items := []model.DemandItem{{Date: "2025-12-25", Location: "main", Start: "09:00", End: "13:00", Demand: 3}}
	rules := []ActiveRule{
		{Date: "2025-12-25", Location: "main", CreatedAt: "1", Rule: model.EventRule{Mode: model.RuleModeOverride, Value: -5, Active: true}},
	}
	out := Apply(items, rules)
	if out[0].Demand != 0 {
		t.Fatalf("demand must be clamped to >= 0, got %d", out[0].Demand)
	}
}
