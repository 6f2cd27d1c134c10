// Package model 定义排班核心的领域数据模型
package model

import "time"

// JSONMap 用于存储 JSONB 字段（meta、assigned_employees_detail 等自由格式数据）
type JSONMap map[string]interface{}

// TenantID 是外部鉴权层解析后传入的不透明租户标识
type TenantID string

// Role 是调用者在租户内的角色
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
)

// CanApprove 报告该角色是否可以审批班次/调班申请
func (r Role) CanApprove() bool {
	return r == RoleManager || r == RoleOwner
}

// Int64Model 是以自增主键为标识的实体的公共字段（Demand、ScheduleShift 等，
// 其 shift_uid 需要嵌入字面量 demand id，UUID 无法满足这一点）
type Int64Model struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Slot 是一个 HH:MM 半开区间 [Start, End)
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
