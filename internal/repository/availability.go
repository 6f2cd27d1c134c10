package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rotaforge/rotaforge/pkg/model"
	"github.com/rotaforge/rotaforge/pkg/timeutil"
)

// AvailabilityRepository 员工可用性仓储
type AvailabilityRepository struct {
	db DB
}

// NewAvailabilityRepository 创建可用性仓储
func NewAvailabilityRepository(db DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Upsert 写入或覆盖某员工某天的可用性记录。同一 (tenant,employee,date) 重复
// 提交时：无效时段被静默丢弃（规格 3 节 Availability 不变式），工时带与既有
// 行收紧为交集而非整体覆盖（TightenHours，对应“hour bounds are tightened”）。
func (r *AvailabilityRepository) Upsert(ctx context.Context, a *model.Availability) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.AvailableSlots = normalizeSlots(a.AvailableSlots)

	existing, err := r.GetByEmployeeDate(ctx, a.Tenant, a.EmployeeID, a.Date)
	if err != nil {
		return err
	}
	if existing != nil {
		a.HoursMin, a.HoursMax = model.TightenHours(existing.HoursMin, existing.HoursMax, a.HoursMin, a.HoursMax)
	}

	slotsJSON, err := json.Marshal(a.AvailableSlots)
	if err != nil {
		return fmt.Errorf("序列化可用时段失败: %w", err)
	}
	var assignedJSON []byte
	if a.AssignedShift != nil {
		assignedJSON, err = json.Marshal(a.AssignedShift)
		if err != nil {
			return fmt.Errorf("序列化已分配班次失败: %w", err)
		}
	}

	query := `
		INSERT INTO availabilities (
			id, tenant_id, employee_id, employee_name, date, experienced,
			hours_min, hours_max, available_slots, assigned_shift, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		ON CONFLICT (tenant_id, employee_id, date) DO UPDATE SET
			employee_name = EXCLUDED.employee_name,
			experienced = EXCLUDED.experienced,
			hours_min = EXCLUDED.hours_min,
			hours_max = EXCLUDED.hours_max,
			available_slots = EXCLUDED.available_slots,
			assigned_shift = EXCLUDED.assigned_shift,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowContext(ctx, query,
		a.ID, a.Tenant, a.EmployeeID, a.EmployeeName, a.Date, a.Experienced,
		a.HoursMin, a.HoursMax, slotsJSON, assignedJSON,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

// ListByDate 查询某租户某天（可按地点过滤）全部员工可用性
func (r *AvailabilityRepository) ListByDate(ctx context.Context, tenant model.TenantID, date, location string, onlyWithSlots bool) ([]*model.Availability, error) {
	query := `
		SELECT id, tenant_id, employee_id, employee_name, date, experienced,
			hours_min, hours_max, available_slots, assigned_shift, created_at, updated_at
		FROM availabilities
		WHERE tenant_id = $1 AND date = $2
	`
	args := []interface{}{tenant, date}
	if onlyWithSlots {
		query += " AND jsonb_array_length(available_slots) > 0"
	}
	query += " ORDER BY employee_name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询可用性列表失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		if location != "" && a.AssignedShift != nil && a.AssignedShift.Location != location {
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListByDateRange 查询某租户 [dateFrom,dateTo]（可按地点过滤）全部员工可用性，
// 供跨天 Demand（SaveRange/generate-range）求解时按规格 4.7 节取全窗口读取。
func (r *AvailabilityRepository) ListByDateRange(ctx context.Context, tenant model.TenantID, dateFrom, dateTo, location string, onlyWithSlots bool) ([]*model.Availability, error) {
	query := `
		SELECT id, tenant_id, employee_id, employee_name, date, experienced,
			hours_min, hours_max, available_slots, assigned_shift, created_at, updated_at
		FROM availabilities
		WHERE tenant_id = $1 AND date >= $2 AND date <= $3
	`
	args := []interface{}{tenant, dateFrom, dateTo}
	if onlyWithSlots {
		query += " AND jsonb_array_length(available_slots) > 0"
	}
	query += " ORDER BY date, employee_name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询可用性列表失败: %w", err)
	}
	defer rows.Close()

	var out []*model.Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		if location != "" && a.AssignedShift != nil && a.AssignedShift.Location != location {
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByEmployeeDate 查询单个员工某天的可用性
func (r *AvailabilityRepository) GetByEmployeeDate(ctx context.Context, tenant model.TenantID, employeeID, date string) (*model.Availability, error) {
	query := `
		SELECT id, tenant_id, employee_id, employee_name, date, experienced,
			hours_min, hours_max, available_slots, assigned_shift, created_at, updated_at
		FROM availabilities
		WHERE tenant_id = $1 AND employee_id = $2 AND date = $3
	`
	a, err := scanAvailability(r.db.QueryRowContext(ctx, query, tenant, employeeID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// normalizeSlots 规范化每个时段的 "HH:MM" 写法，静默丢弃无法解析或不合法
// （start>=end、越过午夜）的时段。
func normalizeSlots(slots []model.Slot) []model.Slot {
	out := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		ns, ne, ok := timeutil.ValidateSlot(s.Start, s.End)
		if !ok {
			continue
		}
		out = append(out, model.Slot{Start: ns, End: ne})
	}
	return out
}

func scanAvailability(row Scanner) (*model.Availability, error) {
	a := &model.Availability{}
	var slotsJSON []byte
	var assignedJSON []byte

	err := row.Scan(
		&a.ID, &a.Tenant, &a.EmployeeID, &a.EmployeeName, &a.Date, &a.Experienced,
		&a.HoursMin, &a.HoursMax, &slotsJSON, &assignedJSON, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(slotsJSON) > 0 {
		if err := json.Unmarshal(slotsJSON, &a.AvailableSlots); err != nil {
			return nil, fmt.Errorf("解析可用时段失败: %w", err)
		}
	}
	if len(assignedJSON) > 0 {
		a.AssignedShift = &model.AssignedShift{}
		if err := json.Unmarshal(assignedJSON, a.AssignedShift); err != nil {
			return nil, fmt.Errorf("解析已分配班次失败: %w", err)
		}
	}
	return a, nil
}
