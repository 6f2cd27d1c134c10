package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// ScheduleShiftRepository 排班结果仓储
type ScheduleShiftRepository struct {
	db DB
}

// NewScheduleShiftRepository 创建排班结果仓储
func NewScheduleShiftRepository(db DB) *ScheduleShiftRepository {
	return &ScheduleShiftRepository{db: db}
}

// Upsert 写入或覆盖一条 shift_uid 对应的排班行（求解器重新生成同一需求时幂等）
func (r *ScheduleShiftRepository) Upsert(ctx context.Context, s *model.ScheduleShift) error {
	metaJSON, err := json.Marshal(s.Meta)
	if err != nil {
		return fmt.Errorf("序列化班次详情失败: %w", err)
	}

	query := `
		INSERT INTO schedule_shifts (
			tenant_id, demand_id, shift_uid, date, location, start, "end",
			demand_count, needs_experienced, assigned_employees, missing_minutes,
			meta, user_edited, confirmed, approved_by, approved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
		ON CONFLICT (tenant_id, shift_uid) DO UPDATE SET
			demand_count = EXCLUDED.demand_count,
			needs_experienced = EXCLUDED.needs_experienced,
			assigned_employees = EXCLUDED.assigned_employees,
			missing_minutes = EXCLUDED.missing_minutes,
			meta = EXCLUDED.meta,
			updated_at = now()
		WHERE schedule_shifts.user_edited = false
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		s.Tenant, s.DemandID, s.ShiftUID, s.Date, s.Location, s.Start, s.End,
		s.DemandCount, s.NeedsExperienced, pq.Array(s.AssignedEmployees), s.MissingMinutes,
		metaJSON, s.UserEdited, s.Confirmed, s.ApprovedBy, s.ApprovedAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		// 该班次已被经理手动编辑过（user_edited=true），不被重新求解覆盖；
		// 调用方应视为“已存在，保留原值”。
		return r.loadByUID(ctx, s)
	}
	return err
}

func (r *ScheduleShiftRepository) loadByUID(ctx context.Context, s *model.ScheduleShift) error {
	existing, err := r.GetByUID(ctx, s.Tenant, s.ShiftUID)
	if err != nil {
		return err
	}
	if existing != nil {
		*s = *existing
	}
	return nil
}

// GetByUID 按 shift_uid 获取排班行
func (r *ScheduleShiftRepository) GetByUID(ctx context.Context, tenant model.TenantID, shiftUID string) (*model.ScheduleShift, error) {
	query := `
		SELECT id, tenant_id, demand_id, shift_uid, date, location, start, "end",
			demand_count, needs_experienced, assigned_employees, missing_minutes,
			meta, user_edited, confirmed, approved_by, approved_at, created_at, updated_at
		FROM schedule_shifts
		WHERE tenant_id = $1 AND shift_uid = $2
	`
	s, err := scanScheduleShift(r.db.QueryRowContext(ctx, query, tenant, shiftUID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// ListByDay 查询某天（某地点）全部排班行
func (r *ScheduleShiftRepository) ListByDay(ctx context.Context, tenant model.TenantID, date, location string) ([]*model.ScheduleShift, error) {
	query := `
		SELECT id, tenant_id, demand_id, shift_uid, date, location, start, "end",
			demand_count, needs_experienced, assigned_employees, missing_minutes,
			meta, user_edited, confirmed, approved_by, approved_at, created_at, updated_at
		FROM schedule_shifts
		WHERE tenant_id = $1 AND date = $2 AND location = $3
		ORDER BY start
	`
	rows, err := r.db.QueryContext(ctx, query, tenant, date, location)
	if err != nil {
		return nil, fmt.Errorf("查询排班结果失败: %w", err)
	}
	defer rows.Close()

	var out []*model.ScheduleShift
	for rows.Next() {
		s, err := scanScheduleShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateEdited 落库一条已被经理手动编辑（或调班批准）的班次行，覆盖全部
// 可编辑字段：日期/地点/时间、需求人数与经验要求、分配名单与详情、
// confirmed 与 approved_by/approved_at。调用方负责按操作语义填好这些字段
// ——普通编辑清空 approved_by/approved_at，调班批准则反过来写入它们——
// 本方法只是如实持久化，并始终标记 user_edited = true。
func (r *ScheduleShiftRepository) UpdateEdited(ctx context.Context, s *model.ScheduleShift) error {
	metaJSON, err := json.Marshal(s.Meta)
	if err != nil {
		return fmt.Errorf("序列化班次详情失败: %w", err)
	}
	s.UserEdited = true
	query := `
		UPDATE schedule_shifts SET
			date = $3, location = $4, start = $5, "end" = $6,
			demand_count = $7, needs_experienced = $8,
			assigned_employees = $9, missing_minutes = $10, meta = $11,
			confirmed = $12, approved_by = $13, approved_at = $14,
			user_edited = true, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`
	_, err = r.db.ExecContext(ctx, query,
		s.Tenant, s.ID, s.Date, s.Location, s.Start, s.End,
		s.DemandCount, s.NeedsExperienced,
		pq.Array(s.AssignedEmployees), s.MissingMinutes, metaJSON,
		s.Confirmed, s.ApprovedBy, s.ApprovedAt,
	)
	if err != nil {
		return fmt.Errorf("更新班次失败: %w", err)
	}
	return nil
}

// Approve 经理审批班次
func (r *ScheduleShiftRepository) Approve(ctx context.Context, tenant model.TenantID, id int64, approvedBy, approvedAt string) error {
	query := `
		UPDATE schedule_shifts SET confirmed = true, approved_by = $3, approved_at = $4, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`
	_, err := r.db.ExecContext(ctx, query, tenant, id, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("审批班次失败: %w", err)
	}
	return nil
}

func scanScheduleShift(row Scanner) (*model.ScheduleShift, error) {
	s := &model.ScheduleShift{}
	var metaJSON []byte
	err := row.Scan(
		&s.ID, &s.Tenant, &s.DemandID, &s.ShiftUID, &s.Date, &s.Location, &s.Start, &s.End,
		&s.DemandCount, &s.NeedsExperienced, pq.Array(&s.AssignedEmployees), &s.MissingMinutes,
		&metaJSON, &s.UserEdited, &s.Confirmed, &s.ApprovedBy, &s.ApprovedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &s.Meta); err != nil {
			return nil, fmt.Errorf("解析班次详情失败: %w", err)
		}
	}
	return s, nil
}
