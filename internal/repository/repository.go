// Package repository 提供数据访问层，所有仓储方法均以 tenant_id 作为隔离边界。
package repository

import (
	"context"
	"database/sql"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// ListFilter 列表查询过滤器，目前由 DemandRepository.List 使用
type ListFilter struct {
	Tenant    model.TenantID `json:"tenant"`
	StartDate string         `json:"start_date,omitempty"`
	EndDate   string         `json:"end_date,omitempty"`
	Offset    int            `json:"offset"`
	Limit     int            `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter(tenant model.TenantID) ListFilter {
	return ListFilter{
		Tenant: tenant,
		Offset: 0,
		Limit:  100,
	}
}

// WithDateRange 设置日期范围
func (f ListFilter) WithDateRange(start, end string) ListFilter {
	f.StartDate = start
	f.EndDate = end
	return f
}

// DB 数据库接口，*sql.DB 与 *sql.Tx 都满足它
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Scanner 行扫描接口，*sql.Row 与 *sql.Rows 都满足它
type Scanner interface {
	Scan(dest ...interface{}) error
}
