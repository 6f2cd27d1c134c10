// Package timeutil 提供 HH:MM 规范化、区间判断与 30 分钟切片工具。
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// SliceMinutes 是求解器把原始班次切成固定长度决策单元的粒度。
const SliceMinutes = 30

// MaxMinutesOfDay 是一天的分钟数上限，区间端点不得超出。
const MaxMinutesOfDay = 24 * 60

// NormalizeHHMM 接受 "H"、"H:M"、"HH:MM"，容忍 "."/空格分隔符，
// 输出零填充的 "HH:MM"。输入为空或无法解析时返回空字符串。
func NormalizeHHMM(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", ":")

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		hh, err1 := strconv.Atoi(parts[0])
		mm, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return ""
		}
		return fmt.Sprintf("%02d:%02d", hh, mm)
	}

	hh, err := strconv.Atoi(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d:00", hh)
}

// ToMinutes 把规范化后的 "HH:MM" 转换为当天分钟数；解析失败返回 -1。
func ToMinutes(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return -1
	}
	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return -1
	}
	return hh*60 + mm
}

// FromMinutes 把当天分钟数格式化回 "HH:MM"。
func FromMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ValidInterval 报告 [start,end) 是否是 [0,1440] 内的合法区间。
func ValidInterval(startMin, endMin int) bool {
	return startMin >= 0 && startMin < endMin && endMin <= MaxMinutesOfDay
}

// ValidateSlot 规范化并校验一个 "HH:MM" 字符串对，无效时返回 ok=false。
func ValidateSlot(start, end string) (normStart, normEnd string, ok bool) {
	ns := NormalizeHHMM(start)
	ne := NormalizeHHMM(end)
	if ns == "" || ne == "" {
		return "", "", false
	}
	sm, em := ToMinutes(ns), ToMinutes(ne)
	if sm < 0 || em < 0 || !ValidInterval(sm, em) {
		return "", "", false
	}
	return ns, ne, true
}

// Contains 报告 [slotStart,slotEnd] 是否（闭区间）包含 [shiftStart,shiftEnd]。
// 规格 4.1：slot contains shift iff slot.start ≤ shift.start ∧ shift.end ≤ slot.end。
func Contains(slotStart, slotEnd, shiftStart, shiftEnd int) bool {
	return slotStart <= shiftStart && shiftEnd <= slotEnd
}

// Overlaps 报告两个半开区间 [aStart,aEnd) 与 [bStart,bEnd) 是否重叠。
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || bEnd <= aStart)
}

// Slice 是一个 30 分钟（或更短，若原区间长度非 30 的倍数）的原子决策单元。
type Slice struct {
	StartMin int
	EndMin   int
}

// Duration 返回该切片的分钟数。
func (s Slice) Duration() int {
	return s.EndMin - s.StartMin
}

// SliceInterval 把 [startMin,endMin) 切成固定 SliceMinutes 长度的切片序列，
// 最后一片在区间长度非整数倍时可更短。
func SliceInterval(startMin, endMin int) []Slice {
	if startMin >= endMin {
		return nil
	}
	var out []Slice
	t := startMin
	for t < endMin {
		t2 := t + SliceMinutes
		if t2 > endMin {
			t2 = endMin
		}
		out = append(out, Slice{StartMin: t, EndMin: t2})
		t = t2
	}
	return out
}
