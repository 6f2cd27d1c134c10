package solver

// objective 按规格 4.8 节的加权和计算当前解的目标值：
// 1000×under-coverage + 10×over-hours + 1×under-hours（越小越好）。
func objective(w *world, asg *assignment) float64 {
	var underSum, overSum, underHoursSum float64

	for slIdx, sl := range w.slices {
		sh := w.shifts[sl.shiftIdx]
		assigned := len(asg.x[slIdx])
		if sh.Demand > assigned {
			underSum += float64(sh.Demand - assigned)
		}
	}

	totalMinutes := minutesPerEmployee(w, asg)
	for ei, emp := range w.employees {
		tot := totalMinutes[ei]
		maxMin := emp.HoursMax * 60
		minMin := emp.HoursMin * 60
		if tot > maxMin {
			overSum += float64(tot - maxMin)
		}
		if tot < minMin {
			underHoursSum += float64(minMin - tot)
		}
	}

	return 1000*underSum + 10*overSum + 1*underHoursSum
}

// minutesPerEmployee 汇总每名员工在全部切片上的已分配分钟数。
func minutesPerEmployee(w *world, asg *assignment) map[int]int {
	out := make(map[int]int, len(w.employees))
	for slIdx, set := range asg.x {
		sl := w.slices[slIdx]
		for ei := range set {
			out[ei] += sl.duration()
		}
	}
	return out
}
