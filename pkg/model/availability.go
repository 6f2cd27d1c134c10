package model

import "github.com/google/uuid"

// BigMax 是未设置 hours_max 时的哨兵值，效果上等于“无上限”。
// 沿用原始 Django 实现中的 BIG_MAX 常量，而不是引入显式的“无界”分支——
// 这是规格 Open Questions 中点名的可选项，不是强制项。
const BigMax = 1_000_000_000

// AssignedShift 是员工在某天已确认的预分配班次。
// 预分配会在求解阶段被提升为强制变量（见 pkg/solver）。
type AssignedShift struct {
	Location  string `json:"location"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Confirmed bool   `json:"confirmed"`
}

// Availability 是某员工在某天的可用性记录，每 (employee, date) 唯一。
type Availability struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Tenant         TenantID       `json:"tenant" db:"tenant"`
	EmployeeID     string         `json:"employee_id" db:"employee_id"`
	EmployeeName   string         `json:"employee_name" db:"employee_name"`
	Date           string         `json:"date" db:"date"` // YYYY-MM-DD
	Experienced    bool           `json:"experienced" db:"experienced"`
	HoursMin       int            `json:"hours_min" db:"hours_min"`
	HoursMax       int            `json:"hours_max" db:"hours_max"`
	AvailableSlots []Slot         `json:"available_slots" db:"available_slots"`
	AssignedShift  *AssignedShift `json:"assigned_shift,omitempty" db:"assigned_shift"`
	CreatedAt      string         `json:"created_at" db:"created_at"`
	UpdatedAt      string         `json:"updated_at" db:"updated_at"`
}

// TightenHours 把重复写入的工时带收紧为交集：min 取较大者，max 取较小者。
// 对应规格 3 节 Availability 不变式：“Hour bounds ... are tightened”。
func TightenHours(existingMin, existingMax, incomingMin, incomingMax int) (int, int) {
	min := existingMin
	if incomingMin > min {
		min = incomingMin
	}
	max := existingMax
	if incomingMax < max {
		max = incomingMax
	}
	return min, max
}
