package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// DemandRepository 需求（content-addressed）仓储
type DemandRepository struct {
	db DB
}

// NewDemandRepository 创建需求仓储
func NewDemandRepository(db DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// FindByHash 按租户+内容哈希查找已存在的需求行（用于去重，编辑即新建）
func (r *DemandRepository) FindByHash(ctx context.Context, tenant model.TenantID, hash string) (*model.Demand, error) {
	query := `
		SELECT id, tenant_id, name, raw_payload, content_hash, date_from, date_to,
			schedule_generated, solved_at, created_at, updated_at
		FROM demands
		WHERE tenant_id = $1 AND content_hash = $2
	`
	d, err := scanDemand(r.db.QueryRowContext(ctx, query, tenant, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// Create 插入一条新的需求行（新内容哈希）
func (r *DemandRepository) Create(ctx context.Context, d *model.Demand) error {
	payloadJSON, err := json.Marshal(d.RawPayload)
	if err != nil {
		return fmt.Errorf("序列化需求内容失败: %w", err)
	}

	query := `
		INSERT INTO demands (
			tenant_id, name, raw_payload, content_hash, date_from, date_to,
			schedule_generated, solved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		d.Tenant, d.Name, payloadJSON, d.ContentHash, d.DateFrom, d.DateTo,
		d.ScheduleGenerated, d.SolvedAt,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// GetByID 按主键获取需求
func (r *DemandRepository) GetByID(ctx context.Context, tenant model.TenantID, id int64) (*model.Demand, error) {
	query := `
		SELECT id, tenant_id, name, raw_payload, content_hash, date_from, date_to,
			schedule_generated, solved_at, created_at, updated_at
		FROM demands
		WHERE tenant_id = $1 AND id = $2
	`
	d, err := scanDemand(r.db.QueryRowContext(ctx, query, tenant, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// List 按过滤器分页列出需求，按创建时间倒序（对应原实现的
// count/next/previous/results 分页形状，这里只返回 count 和当页 results，
// next/previous 由外层传输层根据 offset/limit 自行拼装）。
func (r *DemandRepository) List(ctx context.Context, f ListFilter) (results []*model.Demand, count int, err error) {
	where := "WHERE tenant_id = $1"
	args := []interface{}{f.Tenant}
	if f.StartDate != "" {
		args = append(args, f.StartDate)
		where += fmt.Sprintf(" AND date_to >= $%d", len(args))
	}
	if f.EndDate != "" {
		args = append(args, f.EndDate)
		where += fmt.Sprintf(" AND date_from <= $%d", len(args))
	}

	countQuery := "SELECT count(*) FROM demands " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("统计需求总数失败: %w", err)
	}

	limit, offset := f.Limit, f.Offset
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, raw_payload, content_hash, date_from, date_to,
			schedule_generated, solved_at, created_at, updated_at
		FROM demands %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询需求列表失败: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, d)
	}
	return results, count, rows.Err()
}

// MarkSolved 标记需求已生成排班
func (r *DemandRepository) MarkSolved(ctx context.Context, id int64, solvedAt string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE demands SET schedule_generated = true, solved_at = $2, updated_at = now() WHERE id = $1`,
		id, solvedAt,
	)
	if err != nil {
		return fmt.Errorf("标记需求已生成排班失败: %w", err)
	}
	return nil
}

func scanDemand(row Scanner) (*model.Demand, error) {
	d := &model.Demand{}
	var payloadJSON []byte
	err := row.Scan(
		&d.ID, &d.Tenant, &d.Name, &payloadJSON, &d.ContentHash, &d.DateFrom, &d.DateTo,
		&d.ScheduleGenerated, &d.SolvedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &d.RawPayload); err != nil {
			return nil, fmt.Errorf("解析需求内容失败: %w", err)
		}
	}
	return d, nil
}

// DefaultDemandRepository 默认模板仓储
type DefaultDemandRepository struct {
	db DB
}

// NewDefaultDemandRepository 创建默认模板仓储
func NewDefaultDemandRepository(db DB) *DefaultDemandRepository {
	return &DefaultDemandRepository{db: db}
}

// Upsert 写入或替换某地点（某星期几，或通用模板当 weekday 为空）的默认模板
func (r *DefaultDemandRepository) Upsert(ctx context.Context, t *model.DefaultDemand) error {
	itemsJSON, err := json.Marshal(t.Items)
	if err != nil {
		return fmt.Errorf("序列化模板内容失败: %w", err)
	}

	query := `
		INSERT INTO default_demands (tenant_id, location, weekday, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (tenant_id, location, weekday) DO UPDATE SET
			items = EXCLUDED.items, updated_at = now()
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, t.Tenant, t.Location, t.Weekday, itemsJSON).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// ListByLocation 取出某地点全部默认模板（含通用模板 weekday=NULL 与各星期几模板）
func (r *DefaultDemandRepository) ListByLocation(ctx context.Context, tenant model.TenantID, location string) ([]*model.DefaultDemand, error) {
	query := `
		SELECT id, tenant_id, location, weekday, items, created_at, updated_at
		FROM default_demands
		WHERE tenant_id = $1 AND location = $2
		ORDER BY weekday NULLS FIRST
	`
	rows, err := r.db.QueryContext(ctx, query, tenant, location)
	if err != nil {
		return nil, fmt.Errorf("查询默认模板失败: %w", err)
	}
	defer rows.Close()

	var out []*model.DefaultDemand
	for rows.Next() {
		t := &model.DefaultDemand{}
		var itemsJSON []byte
		if err := rows.Scan(&t.ID, &t.Tenant, &t.Location, &t.Weekday, &itemsJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("扫描默认模板失败: %w", err)
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &t.Items); err != nil {
				return nil, fmt.Errorf("解析模板内容失败: %w", err)
			}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
