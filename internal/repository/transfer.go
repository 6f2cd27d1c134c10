package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// TransferRepository 调班申请仓储
type TransferRepository struct {
	db DB
}

// NewTransferRepository 创建调班申请仓储
func NewTransferRepository(db DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create 创建调班申请，初始状态恒为 pending
func (r *TransferRepository) Create(ctx context.Context, t *model.ShiftTransferRequest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.Status = model.TransferPending

	query := `
		INSERT INTO shift_transfer_requests (
			id, tenant_id, shift_uid, requested_by, action, target_employee,
			status, note, manager_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		t.ID, t.Tenant, t.ShiftUID, t.RequestedBy, t.Action, t.TargetEmployee,
		t.Status, t.Note, t.ManagerNote,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID 按主键获取调班申请
func (r *TransferRepository) GetByID(ctx context.Context, tenant model.TenantID, id uuid.UUID) (*model.ShiftTransferRequest, error) {
	query := `
		SELECT id, tenant_id, shift_uid, requested_by, action, target_employee,
			status, note, manager_note, approved_by, approved_at, created_at, updated_at
		FROM shift_transfer_requests
		WHERE tenant_id = $1 AND id = $2
	`
	t, err := scanTransfer(r.db.QueryRowContext(ctx, query, tenant, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListPending 列出某租户全部待审批的调班申请
func (r *TransferRepository) ListPending(ctx context.Context, tenant model.TenantID) ([]*model.ShiftTransferRequest, error) {
	query := `
		SELECT id, tenant_id, shift_uid, requested_by, action, target_employee,
			status, note, manager_note, approved_by, approved_at, created_at, updated_at
		FROM shift_transfer_requests
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, tenant, model.TransferPending)
	if err != nil {
		return nil, fmt.Errorf("查询待审批调班申请失败: %w", err)
	}
	defer rows.Close()

	var out []*model.ShiftTransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Resolve 将申请置为 approved/rejected，仅当当前仍是 pending 时生效
// （同一申请已被处理两次属于 ConflictState，由调用方据受影响行数判断）
func (r *TransferRepository) Resolve(ctx context.Context, tenant model.TenantID, id uuid.UUID, status model.TransferStatus, approvedBy, approvedAt, managerNote string) (bool, error) {
	query := `
		UPDATE shift_transfer_requests SET
			status = $3, approved_by = $4, approved_at = $5, manager_note = $6, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND status = $7
	`
	res, err := r.db.ExecContext(ctx, query, tenant, id, status, approvedBy, approvedAt, managerNote, model.TransferPending)
	if err != nil {
		return false, fmt.Errorf("处理调班申请失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("读取受影响行数失败: %w", err)
	}
	return n > 0, nil
}

func scanTransfer(row Scanner) (*model.ShiftTransferRequest, error) {
	t := &model.ShiftTransferRequest{}
	err := row.Scan(
		&t.ID, &t.Tenant, &t.ShiftUID, &t.RequestedBy, &t.Action, &t.TargetEmployee,
		&t.Status, &t.Note, &t.ManagerNote, &t.ApprovedBy, &t.ApprovedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
