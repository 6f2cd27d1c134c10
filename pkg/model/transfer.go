package model

import "github.com/google/uuid"

// TransferAction 是调班申请的动作类型。
type TransferAction string

const (
	TransferActionDrop  TransferAction = "drop"
	TransferActionClaim TransferAction = "claim"
)

// TransferStatus 是调班申请的状态机。
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferApproved TransferStatus = "approved"
	TransferRejected TransferStatus = "rejected"
)

// ShiftTransferRequest 是员工发起的掉班/认领申请，等待经理审批。
type ShiftTransferRequest struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Tenant          TenantID       `json:"tenant" db:"tenant"`
	ShiftUID        string         `json:"shift_uid" db:"shift_uid"`
	RequestedBy     string         `json:"requested_by" db:"requested_by"`
	Action          TransferAction `json:"action" db:"action"`
	TargetEmployee  *string        `json:"target_employee,omitempty" db:"target_employee"`
	Status          TransferStatus `json:"status" db:"status"`
	Note            string         `json:"note" db:"note"`
	ManagerNote     string         `json:"manager_note" db:"manager_note"`
	ApprovedBy      *string        `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *string        `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt       string         `json:"created_at" db:"created_at"`
	UpdatedAt       string         `json:"updated_at" db:"updated_at"`
}
