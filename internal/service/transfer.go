package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rotaforge/rotaforge/internal/actorctx"
	"github.com/rotaforge/rotaforge/internal/notify"
	"github.com/rotaforge/rotaforge/internal/repository"
	"github.com/rotaforge/rotaforge/pkg/errors"
	"github.com/rotaforge/rotaforge/pkg/model"
)

// TransferService 编排掉班/认领申请的创建与经理审批：
// 校验可行性 → 变更分配名单 → 通知，drop/claim/approve/reject 四个动作。
type TransferService struct {
	transfers *repository.TransferRepository
	shifts    *repository.ScheduleShiftRepository
	mailer    notify.Mailer
}

// NewTransferService 创建调班服务
func NewTransferService(transfers *repository.TransferRepository, shifts *repository.ScheduleShiftRepository, mailer notify.Mailer) *TransferService {
	return &TransferService{transfers: transfers, shifts: shifts, mailer: mailer}
}

// CreateRequest 创建一条调班申请。drop 要求申请人当前在班次分配名单中，
// claim 要求申请人当前不在名单中。
func (s *TransferService) CreateRequest(ctx context.Context, shiftUID, requestedBy string, action model.TransferAction, targetEmployee *string, note string) (*model.ShiftTransferRequest, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	tenant := actor.TenantID
	shift, err := s.shifts.GetByUID(ctx, tenant, shiftUID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.NotFound("shift", shiftUID)
	}

	inAssigned := containsString(shift.AssignedEmployees, requestedBy)
	switch action {
	case model.TransferActionDrop:
		if !inAssigned {
			return nil, errors.ValidationFailure("requested_by", "申请人当前不在该班次的分配名单中，无法掉班")
		}
	case model.TransferActionClaim:
		if inAssigned {
			return nil, errors.ValidationFailure("requested_by", "申请人已在该班次的分配名单中，无法认领")
		}
	default:
		return nil, errors.ValidationFailure("action", "必须是 drop 或 claim")
	}

	req := &model.ShiftTransferRequest{
		Tenant:         tenant,
		ShiftUID:       shiftUID,
		RequestedBy:    requestedBy,
		Action:         action,
		TargetEmployee: targetEmployee,
		Note:           note,
	}
	if err := s.transfers.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve 经理批准调班申请：按 action 变更班次的 assigned_employees，
// 锁定为经理编辑（confirmed=true, user_edited=true），并通知申请人与
// target_employee（若有）。通知失败不影响本次审批结果。
func (s *TransferService) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*model.ShiftTransferRequest, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	if !actor.CanApprove() {
		return nil, errors.AuthorizationFailure("只有经理或所有者可以审批调班申请")
	}
	tenant := actor.TenantID

	req, err := s.transfers.GetByID(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.NotFound("transfer_request", id.String())
	}

	shift, err := s.shifts.GetByUID(ctx, tenant, req.ShiftUID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.NotFound("shift", req.ShiftUID)
	}

	assigned := applyTransfer(shift.AssignedEmployees, req)
	missing := shift.DemandCount - len(assigned)
	if missing < 0 {
		missing = 0
	}
	approvedAt := time.Now().UTC().Format(time.RFC3339)

	shift.AssignedEmployees = assigned
	shift.MissingMinutes = missing * minutesBetween(shift.Start, shift.End)
	shift.Meta.Uncovered = shift.MissingMinutes > 0
	shift.Meta.AssignedEmployeesDetail = nil
	if missing > 0 {
		shift.Meta.MissingSegments = []model.MissingSegment{{Start: shift.Start, End: shift.End, Missing: missing, MissingMinutes: shift.MissingMinutes}}
	} else {
		shift.Meta.MissingSegments = nil
	}
	// 调班批准同时锁定并审批这条班次：confirmed=true、approved_by/approved_at
	// 写入批准人与时间（与 UpdateShift 的普通编辑相反，后者清空这两个字段）。
	shift.Confirmed = true
	shift.ApprovedBy = &approvedBy
	shift.ApprovedAt = &approvedAt
	if err := s.shifts.UpdateEdited(ctx, shift); err != nil {
		return nil, err
	}

	ok, err := s.transfers.Resolve(ctx, tenant, id, model.TransferApproved, approvedBy, approvedAt, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ConflictState("该调班申请已被处理，无法重复审批")
	}

	req.Status = model.TransferApproved
	req.ApprovedBy = &approvedBy
	req.ApprovedAt = &approvedAt
	s.notifyOutcome(ctx, req, "您的调班申请已通过")
	return req, nil
}

// Reject 经理拒绝调班申请，通知申请人与 target_employee（若有）。
func (s *TransferService) Reject(ctx context.Context, id uuid.UUID, approvedBy, managerNote string) (*model.ShiftTransferRequest, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	if !actor.CanApprove() {
		return nil, errors.AuthorizationFailure("只有经理或所有者可以审批调班申请")
	}
	tenant := actor.TenantID

	req, err := s.transfers.GetByID(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errors.NotFound("transfer_request", id.String())
	}

	approvedAt := time.Now().UTC().Format(time.RFC3339)
	ok, err := s.transfers.Resolve(ctx, tenant, id, model.TransferRejected, approvedBy, approvedAt, managerNote)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ConflictState("该调班申请已被处理，无法重复审批")
	}

	req.Status = model.TransferRejected
	req.ApprovedBy = &approvedBy
	req.ApprovedAt = &approvedAt
	req.ManagerNote = managerNote
	s.notifyOutcome(ctx, req, "您的调班申请已被拒绝")
	return req, nil
}

// ListPending 列出某租户全部待审批的调班申请
func (s *TransferService) ListPending(ctx context.Context) ([]*model.ShiftTransferRequest, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	return s.transfers.ListPending(ctx, actor.TenantID)
}

// applyTransfer 按申请的 action 变更分配名单，保持原有顺序，去重。
func applyTransfer(assigned []string, req *model.ShiftTransferRequest) []string {
	out := make([]string, 0, len(assigned)+1)
	seen := map[string]bool{}
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	switch req.Action {
	case model.TransferActionDrop:
		for _, id := range assigned {
			if id == req.RequestedBy {
				continue
			}
			add(id)
		}
		if req.TargetEmployee != nil {
			add(*req.TargetEmployee)
		}
	case model.TransferActionClaim:
		for _, id := range assigned {
			add(id)
		}
		add(req.RequestedBy)
	default:
		for _, id := range assigned {
			add(id)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// notifyOutcome 把最佳努力通知发给申请人和 target_employee（若有）。
// 发送失败只由 Mailer 实现记录日志，不在这里向上传播。
func (s *TransferService) notifyOutcome(ctx context.Context, req *model.ShiftTransferRequest, subject string) {
	_ = s.mailer.Send(ctx, notify.Message{To: req.RequestedBy, Subject: subject, Body: req.ManagerNote})
	if req.TargetEmployee != nil {
		_ = s.mailer.Send(ctx, notify.Message{To: *req.TargetEmployee, Subject: subject, Body: req.ManagerNote})
	}
}
