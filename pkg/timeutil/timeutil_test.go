package timeutil

import "testing"

func TestNormalizeHHMM(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"完整格式", "09:30", "09:30"},
		{"单小时", "9", "09:00"},
		{"点号分隔", "9.5", "09:05"},
		{"带空格", " 09 : 30 ", "09:30"},
		{"空字符串", "", ""},
		{"非法输入", "abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeHHMM(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeHHMM(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateSlot(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantOK     bool
	}{
		{"正常区间", "09:00", "13:00", true},
		{"end等于start非法", "09:00", "09:00", false},
		{"end超过24:00非法", "23:00", "25:00", false},
		{"跨越到24:00合法", "22:00", "24:00", true},
		{"start大于end非法", "13:00", "09:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := ValidateSlot(tt.start, tt.end)
			if ok != tt.wantOK {
				t.Errorf("ValidateSlot(%q,%q) ok=%v, want %v", tt.start, tt.end, ok, tt.wantOK)
			}
		})
	}
}

func TestContainsAndOverlaps(t *testing.T) {
	if !Contains(ToMinutes("08:00"), ToMinutes("18:00"), ToMinutes("09:00"), ToMinutes("13:00")) {
		t.Error("expected slot to contain shift")
	}
	if Contains(ToMinutes("09:00"), ToMinutes("12:00"), ToMinutes("09:00"), ToMinutes("13:00")) {
		t.Error("shift extends past slot end, should not be contained")
	}
	if !Overlaps(ToMinutes("09:00"), ToMinutes("13:00"), ToMinutes("12:00"), ToMinutes("17:00")) {
		t.Error("expected overlap")
	}
	if Overlaps(ToMinutes("09:00"), ToMinutes("12:00"), ToMinutes("12:00"), ToMinutes("17:00")) {
		t.Error("half-open intervals touching at boundary must not overlap")
	}
}

func TestSliceInterval(t *testing.T) {
	slices := SliceInterval(ToMinutes("09:00"), ToMinutes("10:15"))
	if len(slices) != 3 {
		t.Fatalf("expected 3 slices (30+30+15), got %d", len(slices))
	}
	if slices[2].Duration() != 15 {
		t.Errorf("last slice should be shortened to 15 minutes, got %d", slices[2].Duration())
	}
	total := 0
	for _, sl := range slices {
		total += sl.Duration()
	}
	if total != 75 {
		t.Errorf("total sliced minutes = %d, want 75", total)
	}
}
