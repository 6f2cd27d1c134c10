package canonical

import (
	"testing"

	"github.com/rotaforge/rotaforge/pkg/model"
)

func items(a, b model.DemandItem) []model.DemandItem { return []model.DemandItem{a, b} }

func TestContentHash_StableUnderPermutation(t *testing.T) {
	a := model.DemandItem{Date: "2025-10-20", Location: "main", Start: "09:00", End: "13:00", Demand: 2}
	b := model.DemandItem{Date: "2025-10-20", Location: "main", Start: "13:00", End: "17:00", Demand: 1, NeedsExperienced: true}

	h1 := ContentHash(CanonicalizeDayItems(items(a, b), "2025-10-20", "main"))
	h2 := ContentHash(CanonicalizeDayItems(items(b, a), "2025-10-20", "main"))

	if h1 != h2 {
		t.Fatalf("content hash must be stable under permutation of input items: %s != %s", h1, h2)
	}
}

func TestCanonicalizeDayItems_DropsInvalidAndSorts(t *testing.T) {
	raw := []model.DemandItem{
		{Start: "13:00", End: "17:00", Demand: 1},
		{Start: "bad", End: "17:00", Demand: 9}, // 非法，应被丢弃
		{Start: "09:00", End: "13:00", Demand: 2, NeedsExperienced: true},
		{Start: "09:00", End: "13:00", Demand: 1},
	}
	got := CanonicalizeDayItems(raw, "2025-10-20", "main")
	if len(got) != 3 {
		t.Fatalf("expected 3 valid items, got %d", len(got))
	}
	// 09:00-13:00 demand=1 先于 demand=2（同 start/end，按 demand 升序）
	if got[0].Demand != 1 || got[0].NeedsExperienced {
		t.Errorf("unexpected sort order: %+v", got[0])
	}
	if got[1].Demand != 2 || !got[1].NeedsExperienced {
		t.Errorf("unexpected sort order: %+v", got[1])
	}
}

func TestDayHash_MatchesOnEqualCanonicalForm(t *testing.T) {
	a := CanonicalizeDayItems([]model.DemandItem{{Start: "09:00", End: "13:00", Demand: 1}}, "2025-10-20", "main")
	b := CanonicalizeDayItems([]model.DemandItem{{Start: "9:00", End: "13:00", Demand: 1}}, "2025-10-20", "main")
	if DayHash("2025-10-20", "main", a) != DayHash("2025-10-20", "main", b) {
		t.Fatal("equal canonical forms (after HH:MM normalization) must hash identically")
	}
}

func TestGroupByDayLocation(t *testing.T) {
	raw := []model.DemandItem{
		{Date: "2025-10-20", Location: "main", Start: "09:00", End: "13:00", Demand: 1},
		{Date: "2025-10-20", Location: "bar", Start: "09:00", End: "13:00", Demand: 1},
		{Date: "2025-10-21", Location: "main", Start: "09:00", End: "13:00", Demand: 1},
	}
	groups := GroupByDayLocation(raw)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if len(groups[DayKey{Date: "2025-10-20", Location: "main"}]) != 1 {
		t.Error("missing expected group")
	}
}

func TestCanonicalizeRangeItems_SortsByDateThenLocation(t *testing.T) {
	raw := []model.DemandItem{
		{Date: "2025-10-21", Location: "main", Start: "09:00", End: "13:00", Demand: 1},
		{Date: "2025-10-20", Location: "bar", Start: "09:00", End: "13:00", Demand: 1},
		{Date: "2025-10-20", Location: "main", Start: "09:00", End: "13:00", Demand: 1},
	}
	got := CanonicalizeRangeItems(raw)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].Date != "2025-10-20" || got[0].Location != "bar" {
		t.Errorf("expected (2025-10-20,bar) first, got %+v", got[0])
	}
	if got[2].Date != "2025-10-21" {
		t.Errorf("expected 2025-10-21 last, got %+v", got[2])
	}
}
