// Package solver 实现排班核心的切片化约束求解器。
//
// 原始班次被切成固定 30 分钟的切片，在切片粒度上做覆盖、不重叠、经验与
// 工时约束的可行构造，再用局部搜索降低目标函数。这里没有使用任何
// CP-SAT/ILP 库：检索包中不存在可用的 Go 约束求解器绑定，因此算法是
// 贪心构造 + 模拟退火精化的组合，手法上借鉴 scheduler/optimizer 的
// 退火框架，但状态空间换成了本包自己的切片分配矩阵。
package solver

import (
	"github.com/rotaforge/rotaforge/pkg/model"
	"github.com/rotaforge/rotaforge/pkg/timeutil"
)

// Employee 是求解器眼中的员工：身份、经验、工时带，按日期分桶的可用时段
// （同一员工在求解范围内的不同日期可以提交不同的 Availability 行），以及
// 若有的话，预先锁定的班次（来自已确认的 Availability.AssignedShift）。
type Employee struct {
	ID               string
	Experienced      bool
	HoursMin         int // 小时
	HoursMax         int // 小时，未设置时调用方应传 model.BigMax
	SlotsByDate      map[string][]model.Slot
	PreAssignedShift string // 非空时等于某个 ShiftInput.Key，代表确认的预分配
}

// ShiftInput 是切片前的一条原始需求班次。
type ShiftInput struct {
	Key              string // 稳定标识，通常是 shift_uid
	Date             string
	Start            string
	End              string
	Demand           int
	NeedsExperienced bool
}

// Input 是一次求解调用的完整输入：同一 (date range, location) 下的全部
// 班次与候选员工。DemandID 只用于日志标注，不参与求解逻辑。
type Input struct {
	DemandID  int64
	Shifts    []ShiftInput
	Employees []Employee
}

// sliceRef 定位一个切片：它属于哪个原始班次，以及在当天的分钟区间。
type sliceRef struct {
	shiftIdx int
	start    int
	end      int
}

func (s sliceRef) duration() int { return s.end - s.start }

// world 是求解过程中的只读静态数据：切片网格、员工、allowed 矩阵。
type world struct {
	shifts    []ShiftInput
	employees []Employee
	slices    []sliceRef   // 全局切片列表，按 shift 分组、shift 内按时间排序
	byShift   [][]int      // byShift[s] = 属于该 shift 的全局切片下标列表
	allowed   [][]bool     // allowed[e][sl]
}

func buildWorld(in Input) *world {
	w := &world{
		shifts:    in.Shifts,
		employees: in.Employees,
		byShift:   make([][]int, len(in.Shifts)),
	}

	for si, sh := range in.Shifts {
		startMin := timeutil.ToMinutes(sh.Start)
		endMin := timeutil.ToMinutes(sh.End)
		for _, sl := range timeutil.SliceInterval(startMin, endMin) {
			idx := len(w.slices)
			w.slices = append(w.slices, sliceRef{shiftIdx: si, start: sl.StartMin, end: sl.EndMin})
			w.byShift[si] = append(w.byShift[si], idx)
		}
	}

	w.allowed = make([][]bool, len(w.employees))
	for ei, emp := range w.employees {
		w.allowed[ei] = make([]bool, len(w.slices))
		for si, sl := range w.slices {
			w.allowed[ei][si] = employeeAllowed(emp, in.Shifts[sl.shiftIdx], sl)
		}
	}

	return w
}

// employeeAllowed 实现 allowed[e,sl] 的定义：预分配于父班次，或存在一个
// 包含该切片的可用时段。
func employeeAllowed(emp Employee, sh ShiftInput, sl sliceRef) bool {
	if emp.PreAssignedShift == sh.Key {
		return true
	}
	for _, slot := range emp.SlotsByDate[sh.Date] {
		slotStart, slotEnd, ok := timeutil.ValidateSlot(slot.Start, slot.End)
		if !ok {
			continue
		}
		if timeutil.Contains(timeutil.ToMinutes(slotStart), timeutil.ToMinutes(slotEnd), sl.start, sl.end) {
			return true
		}
	}
	return false
}

// assignment 是求解过程中的可变状态：每个切片被哪些员工占用。
type assignment struct {
	// x[sliceIdx] = 占用该切片的员工下标集合（以 map 模拟集合，元素数通常很小）
	x []map[int]bool
}

func newAssignment(numSlices int) *assignment {
	a := &assignment{x: make([]map[int]bool, numSlices)}
	for i := range a.x {
		a.x[i] = make(map[int]bool)
	}
	return a
}

func (a *assignment) clone() *assignment {
	c := newAssignment(len(a.x))
	for i, set := range a.x {
		for e := range set {
			c.x[i][e] = true
		}
	}
	return c
}
