package model

import "strconv"

// Segment 是某员工在一个原始班次内连续被分配的时间段，由相邻且均被分配的
// 切片合并而成。
type Segment struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
}

// MissingSegment 是某班次内一段连续欠编的时间区间。
type MissingSegment struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	Missing       int    `json:"missing"`
	MissingMinutes int   `json:"missing_minutes"`
}

// AssignedEmployeeDetail 是 assigned_employees 中某员工的分段详情。
type AssignedEmployeeDetail struct {
	EmployeeID string    `json:"employee_id"`
	Segments   []Segment `json:"segments"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	Minutes    int       `json:"minutes"`
}

// HoursSummary 是某员工在一次求解范围内的工时汇总。
type HoursSummary struct {
	EmployeeID  string  `json:"employee_id"`
	Experienced bool    `json:"experienced"`
	TotalHours  float64 `json:"total_hours"`
	HoursMin    int     `json:"hours_min"`
	HoursMax    int     `json:"hours_max"`
	OverHours   float64 `json:"over_hours"`
	UnderHours  float64 `json:"under_hours"`
}

// ShiftMeta 是 ScheduleShift.Meta 的结构化形状，落库时序列化为 JSONB。
type ShiftMeta struct {
	AssignedEmployeesDetail []AssignedEmployeeDetail `json:"assigned_employees_detail"`
	MissingSegments         []MissingSegment         `json:"missing_segments"`
	Uncovered               bool                     `json:"uncovered"`
	HoursSummary            []HoursSummary           `json:"hours_summary,omitempty"`
}

// ScheduleShift 是求解器产出或经理编辑后的一条班次记录，由
// (demand, date, location, start, end) 唯一确定，shift_uid 是其稳定外部键。
type ScheduleShift struct {
	Int64Model
	Tenant            TenantID  `json:"tenant" db:"tenant"`
	DemandID          int64     `json:"demand_id" db:"demand_id"`
	ShiftUID          string    `json:"shift_uid" db:"shift_uid"`
	Date              string    `json:"date" db:"date"`
	Location          string    `json:"location" db:"location"`
	Start             string    `json:"start" db:"start"`
	End               string    `json:"end" db:"end"`
	DemandCount       int       `json:"demand_count" db:"demand_count"`
	NeedsExperienced  bool      `json:"needs_experienced" db:"needs_experienced"`
	AssignedEmployees []string  `json:"assigned_employees" db:"assigned_employees"`
	MissingMinutes    int       `json:"missing_minutes" db:"missing_minutes"`
	Meta              ShiftMeta `json:"meta" db:"meta"`
	UserEdited        bool      `json:"user_edited" db:"user_edited"`
	Confirmed         bool      `json:"confirmed" db:"confirmed"`
	ApprovedBy        *string   `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt        *string   `json:"approved_at,omitempty" db:"approved_at"`
}

// ShiftUID 按规格 6 节构造稳定外部标识：
// "D{demand_id}|{date}|{location}|{start}-{end}"。
func ShiftUID(demandID int64, date, location, start, end string) string {
	return "D" + strconv.FormatInt(demandID, 10) + "|" + date + "|" + location + "|" + start + "-" + end
}
