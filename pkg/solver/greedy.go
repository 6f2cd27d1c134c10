package solver

import "sort"

// buildGreedy 构造一个可行的初始解：按班次、按切片顺序贪心分配，预分配先
// 落地，再在 demand 帽与不重叠约束下为需要经验的切片优先挑经验员工，
// 只有挑到至少一名经验员工时才补满其余人数——否则整片保持空（见
// 约束 6：有人值守的切片若要求经验，必须至少一名经验员工）。
//
// 贪心顺序本身是确定性的（按当前已分配分钟数升序，平局按员工 ID 升序），
// 满足 workers=1 时的确定性要求。
func buildGreedy(w *world) *assignment {
	asg := newAssignment(len(w.slices))
	occupied := newOccupancy(w)

	liftPreAssignments(w, asg, occupied)

	for shiftIdx := range w.shifts {
		for _, slIdx := range w.byShift[shiftIdx] {
			fillSlice(w, asg, occupied, slIdx)
		}
	}

	return asg
}

// liftPreAssignments 把每个员工的预分配强制落到其班次的全部切片上。
func liftPreAssignments(w *world, asg *assignment, occ *occupancy) {
	for ei, emp := range w.employees {
		if emp.PreAssignedShift == "" {
			continue
		}
		for shiftIdx, sh := range w.shifts {
			if sh.Key != emp.PreAssignedShift {
				continue
			}
			for _, slIdx := range w.byShift[shiftIdx] {
				sl := w.slices[slIdx]
				asg.x[slIdx][ei] = true
				occ.occupy(ei, sh.Date, sl.start, sl.end)
			}
		}
	}
}

func fillSlice(w *world, asg *assignment, occ *occupancy, slIdx int) {
	sl := w.slices[slIdx]
	sh := w.shifts[sl.shiftIdx]

	remaining := sh.Demand - len(asg.x[slIdx])
	if remaining <= 0 {
		return
	}

	experienced, inexperienced := candidatesFor(w, asg, occ, slIdx)

	hasExperienced := false
	for ei := range asg.x[slIdx] {
		if w.employees[ei].Experienced {
			hasExperienced = true
			break
		}
	}

	if sh.NeedsExperienced && !hasExperienced {
		if len(experienced) == 0 {
			// 没有经验员工可用：宁可整片不值守，也不能违反约束 6。
			return
		}
		pick := experienced[0]
		assign(w, asg, occ, slIdx, pick)
		remaining--
		experienced = experienced[1:]
	}

	pool := append(append([]int{}, experienced...), inexperienced...)
	for _, ei := range pool {
		if remaining <= 0 {
			break
		}
		if asg.x[slIdx][ei] {
			continue
		}
		assign(w, asg, occ, slIdx, ei)
		remaining--
	}
}

// candidatesFor 返回当前可分配到该切片的员工下标，按当前总分钟数升序、
// 员工 ID 升序排序（确定性负载均衡）。experienced 与 inexperienced 分开
// 返回，便于调用方优先满足经验约束。
func candidatesFor(w *world, asg *assignment, occ *occupancy, slIdx int) (experienced, inexperienced []int) {
	sl := w.slices[slIdx]
	sh := w.shifts[sl.shiftIdx]

	type cand struct {
		idx     int
		minutes int
	}
	var expC, inexpC []cand

	for ei, emp := range w.employees {
		if !w.allowed[ei][slIdx] {
			continue
		}
		if asg.x[slIdx][ei] {
			continue
		}
		if occ.overlaps(ei, sh.Date, sl.start, sl.end) {
			continue
		}
		c := cand{idx: ei, minutes: occ.totalMinutes(ei)}
		if emp.Experienced {
			expC = append(expC, c)
		} else {
			inexpC = append(inexpC, c)
		}
	}

	sortCands := func(cs []cand) []int {
		sort.SliceStable(cs, func(i, j int) bool {
			if cs[i].minutes != cs[j].minutes {
				return cs[i].minutes < cs[j].minutes
			}
			return w.employees[cs[i].idx].ID < w.employees[cs[j].idx].ID
		})
		out := make([]int, len(cs))
		for i, c := range cs {
			out[i] = c.idx
		}
		return out
	}

	return sortCands(expC), sortCands(inexpC)
}

func assign(w *world, asg *assignment, occ *occupancy, slIdx, ei int) {
	sl := w.slices[slIdx]
	sh := w.shifts[sl.shiftIdx]
	asg.x[slIdx][ei] = true
	occ.occupy(ei, sh.Date, sl.start, sl.end)
}

// occupancy 按 (employee index, date) 跟踪已占用的分钟区间，用于不重叠
// 判断与工时累计；只在贪心构造与局部搜索期间使用，不是最终输出的一部分。
type occupancy struct {
	intervals map[occKey][][2]int
	minutes   map[int]int // employee idx -> 累计分钟数
}

type occKey struct {
	ei   int
	date string
}

func newOccupancy(w *world) *occupancy {
	return &occupancy{
		intervals: make(map[occKey][][2]int),
		minutes:   make(map[int]int),
	}
}

func (o *occupancy) overlaps(ei int, date string, start, end int) bool {
	for _, iv := range o.intervals[occKey{ei, date}] {
		if !(end <= iv[0] || iv[1] <= start) {
			return true
		}
	}
	return false
}

func (o *occupancy) occupy(ei int, date string, start, end int) {
	k := occKey{ei, date}
	o.intervals[k] = append(o.intervals[k], [2]int{start, end})
	o.minutes[ei] += end - start
}

func (o *occupancy) release(ei int, date string, start, end int) {
	k := occKey{ei, date}
	ivs := o.intervals[k]
	for i, iv := range ivs {
		if iv[0] == start && iv[1] == end {
			o.intervals[k] = append(ivs[:i], ivs[i+1:]...)
			break
		}
	}
	o.minutes[ei] -= end - start
}

func (o *occupancy) totalMinutes(ei int) int {
	return o.minutes[ei]
}
