package solver

import (
	"sort"

	"github.com/rotaforge/rotaforge/pkg/model"
	"github.com/rotaforge/rotaforge/pkg/timeutil"
)

// ShiftOutput 是某原始班次的求解产物，字段形状对应
// model.ScheduleShift 的 assigned_employees/missing_minutes/meta。
type ShiftOutput struct {
	Key               string
	AssignedEmployees []string
	MissingMinutes    int
	Meta              model.ShiftMeta
}

// Output 是一次求解调用的完整产物。
type Output struct {
	Shifts       []ShiftOutput
	HoursSummary []model.HoursSummary
}

// compose 把最终的切片分配矩阵转换成按班次输出的结构化结果。
func compose(w *world, asg *assignment) Output {
	out := Output{Shifts: make([]ShiftOutput, len(w.shifts))}

	for shiftIdx, sh := range w.shifts {
		out.Shifts[shiftIdx] = composeShift(w, asg, shiftIdx, sh)
	}

	out.HoursSummary = composeHoursSummary(w, asg)
	return out
}

func composeShift(w *world, asg *assignment, shiftIdx int, sh ShiftInput) ShiftOutput {
	slIdxs := w.byShift[shiftIdx]

	employeeSet := map[int]bool{}
	for _, slIdx := range slIdxs {
		for ei := range asg.x[slIdx] {
			employeeSet[ei] = true
		}
	}

	employees := make([]int, 0, len(employeeSet))
	for ei := range employeeSet {
		employees = append(employees, ei)
	}
	sort.Slice(employees, func(i, j int) bool { return w.employees[employees[i]].ID < w.employees[employees[j]].ID })

	assignedIDs := make([]string, len(employees))
	detail := make([]model.AssignedEmployeeDetail, len(employees))
	for i, ei := range employees {
		assignedIDs[i] = w.employees[ei].ID
		segments := segmentsFor(w, asg, slIdxs, ei)
		detail[i] = model.AssignedEmployeeDetail{
			EmployeeID: w.employees[ei].ID,
			Segments:   segments,
			Start:      segments[0].Start,
			End:        segments[len(segments)-1].End,
			Minutes:    sumSegmentMinutes(segments),
		}
	}

	missingSegments, missingMinutes := missingSegmentsFor(w, asg, slIdxs, sh)

	return ShiftOutput{
		Key:               sh.Key,
		AssignedEmployees: assignedIDs,
		MissingMinutes:    missingMinutes,
		Meta: model.ShiftMeta{
			AssignedEmployeesDetail: detail,
			MissingSegments:         missingSegments,
			Uncovered:               missingMinutes > 0,
		},
	}
}

// segmentsFor 把某员工在该班次内被分配的切片，按相邻合并成连续区间。
func segmentsFor(w *world, asg *assignment, slIdxs []int, ei int) []model.Segment {
	var segments []model.Segment
	var curStart, curEnd int
	open := false

	flush := func() {
		if open {
			segments = append(segments, model.Segment{
				Start:   timeutil.FromMinutes(curStart),
				End:     timeutil.FromMinutes(curEnd),
				Minutes: curEnd - curStart,
			})
			open = false
		}
	}

	for _, slIdx := range slIdxs {
		sl := w.slices[slIdx]
		assigned := asg.x[slIdx][ei]
		if !assigned {
			flush()
			continue
		}
		if open && sl.start == curEnd {
			curEnd = sl.end
		} else {
			flush()
			curStart, curEnd = sl.start, sl.end
			open = true
		}
	}
	flush()

	return segments
}

func sumSegmentMinutes(segments []model.Segment) int {
	total := 0
	for _, s := range segments {
		total += s.Minutes
	}
	return total
}

// missingSegmentsFor 为欠编的连续切片生成 missing_segments，并累计
// missing_minutes = Σ max(0, demand-assigned)×duration。
func missingSegmentsFor(w *world, asg *assignment, slIdxs []int, sh ShiftInput) ([]model.MissingSegment, int) {
	var segments []model.MissingSegment
	var curStart, curEnd, curMissing int
	open := false
	totalMissing := 0

	flush := func() {
		if open && curMissing > 0 {
			segments = append(segments, model.MissingSegment{
				Start:          timeutil.FromMinutes(curStart),
				End:            timeutil.FromMinutes(curEnd),
				Missing:        curMissing,
				MissingMinutes: curMissing * (curEnd - curStart),
			})
		}
		open = false
	}

	for _, slIdx := range slIdxs {
		sl := w.slices[slIdx]
		assignedCount := len(asg.x[slIdx])
		missing := sh.Demand - assignedCount
		if missing < 0 {
			missing = 0
		}
		totalMissing += missing * sl.duration()

		if missing == 0 {
			flush()
			continue
		}
		if open && sl.start == curEnd && curMissing == missing {
			curEnd = sl.end
		} else {
			flush()
			curStart, curEnd, curMissing = sl.start, sl.end, missing
			open = true
		}
	}
	flush()

	return segments, totalMissing
}

// composeHoursSummary 汇总每名员工的总工时与 over/under 工时偏差。
func composeHoursSummary(w *world, asg *assignment) []model.HoursSummary {
	totalMinutes := minutesPerEmployee(w, asg)

	out := make([]model.HoursSummary, 0, len(w.employees))
	for ei, emp := range w.employees {
		tot := totalMinutes[ei]
		totalHours := float64(tot) / 60.0
		maxMin := emp.HoursMax * 60
		minMin := emp.HoursMin * 60

		var over, under float64
		if tot > maxMin {
			over = float64(tot-maxMin) / 60.0
		}
		if tot < minMin {
			under = float64(minMin-tot) / 60.0
		}

		out = append(out, model.HoursSummary{
			EmployeeID:  emp.ID,
			Experienced: emp.Experienced,
			TotalHours:  totalHours,
			HoursMin:    emp.HoursMin,
			HoursMax:    emp.HoursMax,
			OverHours:   over,
			UnderHours:  under,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}
