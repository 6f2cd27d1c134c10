package model

import "github.com/google/uuid"

// RuleMode 决定 EventRule 如何变换需求人数。
type RuleMode string

const (
	RuleModeOverride   RuleMode = "override"
	RuleModeMultiplier RuleMode = "multiplier"
)

// EventRule 是一条需求变换规则：覆盖或乘以原始 demand，并可夹紧到
// [MinDemand, MaxDemand]。
type EventRule struct {
	ID                       uuid.UUID `json:"id" db:"id"`
	Tenant                   TenantID  `json:"tenant" db:"tenant"`
	Name                     string    `json:"name" db:"name"`
	Mode                     RuleMode  `json:"mode" db:"mode"`
	Value                    float64   `json:"value" db:"value"`
	NeedsExperiencedDefault  bool      `json:"needs_experienced_default" db:"needs_experienced_default"`
	MinDemand                *int      `json:"min_demand,omitempty" db:"min_demand"`
	MaxDemand                *int      `json:"max_demand,omitempty" db:"max_demand"`
	Active                   bool      `json:"active" db:"active"`
	CreatedAt                string    `json:"created_at" db:"created_at"`
}

// SpecialDay 绑定一个日历日期（可选限定某地点）到一条 EventRule。
// Location == "" 是通配符，适用于该租户当天的所有地点。
type SpecialDay struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Tenant    TenantID  `json:"tenant" db:"tenant"`
	Date      string    `json:"date" db:"date"`
	Location  string    `json:"location" db:"location"`
	RuleID    uuid.UUID `json:"rule_id" db:"rule_id"`
	Note      string    `json:"note" db:"note"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt string    `json:"created_at" db:"created_at"`
	UpdatedAt string    `json:"updated_at" db:"updated_at"`
}
