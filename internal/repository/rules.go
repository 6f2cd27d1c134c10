package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// EventRuleRepository 事件规则仓储
type EventRuleRepository struct {
	db DB
}

// NewEventRuleRepository 创建事件规则仓储
func NewEventRuleRepository(db DB) *EventRuleRepository {
	return &EventRuleRepository{db: db}
}

// Create 创建规则
func (r *EventRuleRepository) Create(ctx context.Context, rule *model.EventRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	query := `
		INSERT INTO event_rules (
			id, tenant_id, name, mode, value, needs_experienced_default,
			min_demand, max_demand, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		rule.ID, rule.Tenant, rule.Name, rule.Mode, rule.Value, rule.NeedsExperiencedDefault,
		rule.MinDemand, rule.MaxDemand, rule.Active,
	).Scan(&rule.CreatedAt)
}

// ListActive 取出某租户全部生效中的规则
func (r *EventRuleRepository) ListActive(ctx context.Context, tenant model.TenantID) ([]*model.EventRule, error) {
	query := `
		SELECT id, tenant_id, name, mode, value, needs_experienced_default,
			min_demand, max_demand, active, created_at
		FROM event_rules
		WHERE tenant_id = $1 AND active = true
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, tenant)
	if err != nil {
		return nil, fmt.Errorf("查询事件规则失败: %w", err)
	}
	defer rows.Close()

	var out []*model.EventRule
	for rows.Next() {
		rule := &model.EventRule{}
		if err := rows.Scan(
			&rule.ID, &rule.Tenant, &rule.Name, &rule.Mode, &rule.Value, &rule.NeedsExperiencedDefault,
			&rule.MinDemand, &rule.MaxDemand, &rule.Active, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描事件规则失败: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// GetByID 按主键获取规则
func (r *EventRuleRepository) GetByID(ctx context.Context, tenant model.TenantID, id uuid.UUID) (*model.EventRule, error) {
	query := `
		SELECT id, tenant_id, name, mode, value, needs_experienced_default,
			min_demand, max_demand, active, created_at
		FROM event_rules
		WHERE tenant_id = $1 AND id = $2
	`
	rule := &model.EventRule{}
	err := r.db.QueryRowContext(ctx, query, tenant, id).Scan(
		&rule.ID, &rule.Tenant, &rule.Name, &rule.Mode, &rule.Value, &rule.NeedsExperiencedDefault,
		&rule.MinDemand, &rule.MaxDemand, &rule.Active, &rule.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询事件规则失败: %w", err)
	}
	return rule, nil
}

// SpecialDayRepository 特殊日期仓储
type SpecialDayRepository struct {
	db DB
}

// NewSpecialDayRepository 创建特殊日期仓储
func NewSpecialDayRepository(db DB) *SpecialDayRepository {
	return &SpecialDayRepository{db: db}
}

// Upsert 将某 (date,location) 绑定到某规则，wildcard 地点以空字符串表示
func (r *SpecialDayRepository) Upsert(ctx context.Context, sd *model.SpecialDay) error {
	if sd.ID == uuid.Nil {
		sd.ID = uuid.New()
	}
	query := `
		INSERT INTO special_days (id, tenant_id, date, location, rule_id, note, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (tenant_id, date, location) DO UPDATE SET
			rule_id = EXCLUDED.rule_id, note = EXCLUDED.note, active = EXCLUDED.active, updated_at = now()
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		sd.ID, sd.Tenant, sd.Date, sd.Location, sd.RuleID, sd.Note, sd.Active,
	).Scan(&sd.CreatedAt, &sd.UpdatedAt)
}

// ListForDate 取出某天（精确地点 + 通配地点）全部生效的特殊日期绑定
func (r *SpecialDayRepository) ListForDate(ctx context.Context, tenant model.TenantID, date, location string) ([]*model.SpecialDay, error) {
	query := `
		SELECT id, tenant_id, date, location, rule_id, note, active, created_at, updated_at
		FROM special_days
		WHERE tenant_id = $1 AND date = $2 AND active = true AND (location = $3 OR location = '')
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, tenant, date, location)
	if err != nil {
		return nil, fmt.Errorf("查询特殊日期失败: %w", err)
	}
	defer rows.Close()

	var out []*model.SpecialDay
	for rows.Next() {
		sd := &model.SpecialDay{}
		if err := rows.Scan(&sd.ID, &sd.Tenant, &sd.Date, &sd.Location, &sd.RuleID, &sd.Note, &sd.Active, &sd.CreatedAt, &sd.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描特殊日期失败: %w", err)
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}
