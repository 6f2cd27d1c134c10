package solver

import (
	"context"
	"testing"
	"time"

	"github.com/rotaforge/rotaforge/pkg/model"
)

func testCfg() Config {
	return Config{
		TimeLimit: 2 * time.Second,
		Workers:   1,
		Anneal:    AnnealConfig{MaxIterations: 50, InitialTemp: 10, CoolingRate: 0.9, PlateauThreshold: 20},
	}
}

func TestSolve_PerfectMatch(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{{Key: "s1", Date: "2025-06-01", Start: "09:00", End: "13:00", Demand: 1}},
		Employees: []Employee{
			{ID: "e1", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "09:00", End: "13:00"}}}},
		},
	}
	out := Solve(context.Background(), in, testCfg())
	s := out.Shifts[0]
	if len(s.AssignedEmployees) != 1 || s.AssignedEmployees[0] != "e1" {
		t.Fatalf("expected e1 assigned, got %v", s.AssignedEmployees)
	}
	if s.MissingMinutes != 0 {
		t.Fatalf("expected missing_minutes=0, got %d", s.MissingMinutes)
	}
}

func TestSolve_InfeasibleDemand(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{{Key: "s1", Date: "2025-06-01", Start: "08:00", End: "12:00", Demand: 5}},
		Employees: []Employee{
			{ID: "e1", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "08:00", End: "16:00"}}}},
			{ID: "e2", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "08:00", End: "16:00"}}}},
		},
	}
	out := Solve(context.Background(), in, testCfg())
	s := out.Shifts[0]
	if len(s.AssignedEmployees) != 2 {
		t.Fatalf("expected 2 assigned, got %d (%v)", len(s.AssignedEmployees), s.AssignedEmployees)
	}
	if s.MissingMinutes != 720 {
		t.Fatalf("expected missing_minutes=720, got %d", s.MissingMinutes)
	}
}

func TestSolve_DisjointAvailability(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{{Key: "s1", Date: "2025-06-01", Start: "08:00", End: "12:00", Demand: 1}},
		Employees: []Employee{
			{ID: "e1", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "14:00", End: "18:00"}}}},
		},
	}
	out := Solve(context.Background(), in, testCfg())
	s := out.Shifts[0]
	if len(s.AssignedEmployees) != 0 {
		t.Fatalf("expected no assignment, got %v", s.AssignedEmployees)
	}
	if s.MissingMinutes != 240 {
		t.Fatalf("expected missing_minutes=240, got %d", s.MissingMinutes)
	}
}

func TestSolve_ExperienceDeficit(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{{Key: "s1", Date: "2025-06-01", Start: "09:00", End: "13:00", Demand: 1, NeedsExperienced: true}},
		Employees: []Employee{
			{ID: "e1", Experienced: false, HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "09:00", End: "13:00"}}}},
		},
	}
	out := Solve(context.Background(), in, testCfg())
	s := out.Shifts[0]
	if len(s.AssignedEmployees) != 0 {
		t.Fatalf("expected slice left unstaffed rather than violate the experience constraint, got %v", s.AssignedEmployees)
	}
	if s.MissingMinutes != 240 {
		t.Fatalf("expected missing_minutes=240, got %d", s.MissingMinutes)
	}
}

func TestSolve_PartialCoverageSegments(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{{Key: "s1", Date: "2025-06-01", Start: "08:00", End: "10:00", Demand: 2}},
		Employees: []Employee{
			{ID: "e1", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "08:00", End: "09:00"}}}},
			{ID: "e2", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "09:00", End: "10:00"}}}},
		},
	}
	out := Solve(context.Background(), in, testCfg())
	s := out.Shifts[0]
	if len(s.Meta.MissingSegments) == 0 {
		t.Fatal("expected missing_segments to cover the under-staffed half-hours")
	}
	for _, ms := range s.Meta.MissingSegments {
		if ms.Missing != 1 {
			t.Fatalf("expected exactly one missing slot throughout, got %d", ms.Missing)
		}
	}
}

func TestSolve_Determinism_WorkersOne(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{
			{Key: "s1", Date: "2025-06-01", Start: "08:00", End: "16:00", Demand: 2},
		},
		Employees: []Employee{
			{ID: "e1", HoursMax: 40, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "08:00", End: "16:00"}}}},
			{ID: "e2", HoursMax: 40, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "08:00", End: "16:00"}}}},
			{ID: "e3", HoursMax: 40, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "08:00", End: "16:00"}}}},
		},
	}
	out1 := Solve(context.Background(), in, testCfg())
	out2 := Solve(context.Background(), in, testCfg())

	total := func(o Output) (assigned, missing int) {
		for _, s := range o.Shifts {
			assigned += len(s.AssignedEmployees)
			missing += s.MissingMinutes
		}
		return
	}
	a1, m1 := total(out1)
	a2, m2 := total(out2)
	if a1 != a2 || m1 != m2 {
		t.Fatalf("expected deterministic totals with workers=1, got (%d,%d) vs (%d,%d)", a1, m1, a2, m2)
	}
}

func TestSolve_NonOverlapAcrossShifts(t *testing.T) {
	in := Input{
		Shifts: []ShiftInput{
			{Key: "s1", Date: "2025-06-01", Start: "09:00", End: "11:00", Demand: 1},
			{Key: "s2", Date: "2025-06-01", Start: "10:00", End: "12:00", Demand: 1},
		},
		Employees: []Employee{
			{ID: "e1", HoursMax: model.BigMax, SlotsByDate: map[string][]model.Slot{"2025-06-01": []model.Slot{{Start: "09:00", End: "12:00"}}}},
		},
	}
	out := Solve(context.Background(), in, testCfg())

	occupiedByS1 := len(out.Shifts[0].AssignedEmployees) == 1
	occupiedByS2 := len(out.Shifts[1].AssignedEmployees) == 1
	if occupiedByS1 && occupiedByS2 {
		t.Fatal("employee cannot cover two overlapping shifts on the same date")
	}
}
