package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rotaforge/rotaforge/pkg/errors"
	"github.com/rotaforge/rotaforge/pkg/model"
)

// DayIndexRepository 日索引（物化视图，可随时从 Demand 重建）仓储
type DayIndexRepository struct {
	db DB
}

// NewDayIndexRepository 创建日索引仓储
func NewDayIndexRepository(db DB) *DayIndexRepository {
	return &DayIndexRepository{db: db}
}

// Get 查询 (tenant,date,location) 对应的索引行，不存在返回 nil
func (r *DayIndexRepository) Get(ctx context.Context, tenant model.TenantID, date, location string) (*model.DayDemandIndex, error) {
	query := `
		SELECT id, tenant_id, date, location, day_hash, demand_id
		FROM day_demand_index
		WHERE tenant_id = $1 AND date = $2 AND location = $3
	`
	idx := &model.DayDemandIndex{}
	err := r.db.QueryRowContext(ctx, query, tenant, date, location).Scan(
		&idx.ID, &idx.Tenant, &idx.Date, &idx.Location, &idx.DayHash, &idx.DemandID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询日索引失败: %w", err)
	}
	return idx, nil
}

// Backfill 懒惰回填一条索引行。底层唯一约束 (tenant_id,date,location) 保证并发
// 写入时只有一行胜出；若命中竞态（IndexRace），调用方应重新查询 Get 而非报错。
func (r *DayIndexRepository) Backfill(ctx context.Context, idx *model.DayDemandIndex) error {
	query := `
		INSERT INTO day_demand_index (tenant_id, date, location, day_hash, demand_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, date, location) DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, idx.Tenant, idx.Date, idx.Location, idx.DayHash, idx.DemandID).Scan(&idx.ID)
	if err == sql.ErrNoRows {
		// 另一个并发写入者已经胜出；这不是失败，调用方重新 Get 即可。
		return errors.New(errors.CodeIndexRace, "日索引已被并发写入者创建")
	}
	if err != nil {
		return fmt.Errorf("回填日索引失败: %w", err)
	}
	return nil
}

// Upsert 在重新求值（如规则变更）后覆盖既有索引行
func (r *DayIndexRepository) Upsert(ctx context.Context, idx *model.DayDemandIndex) error {
	query := `
		INSERT INTO day_demand_index (tenant_id, date, location, day_hash, demand_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, date, location) DO UPDATE SET
			day_hash = EXCLUDED.day_hash, demand_id = EXCLUDED.demand_id
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, idx.Tenant, idx.Date, idx.Location, idx.DayHash, idx.DemandID).Scan(&idx.ID)
	if err != nil {
		return fmt.Errorf("更新日索引失败: %w", err)
	}
	return nil
}
