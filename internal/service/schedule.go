package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rotaforge/rotaforge/internal/actorctx"
	"github.com/rotaforge/rotaforge/internal/repository"
	"github.com/rotaforge/rotaforge/pkg/errors"
	"github.com/rotaforge/rotaforge/pkg/model"
	"github.com/rotaforge/rotaforge/pkg/ruleengine"
	"github.com/rotaforge/rotaforge/pkg/solver"
	"github.com/rotaforge/rotaforge/pkg/timeutil"
)

// ScheduleService 编排「对一份需求求解」与「经理手动编辑/审批班次」两类操作。
type ScheduleService struct {
	demands      *repository.DemandRepository
	shifts       *repository.ScheduleShiftRepository
	availability *repository.AvailabilityRepository
	rules        *repository.EventRuleRepository
	specialDays  *repository.SpecialDayRepository
	solverCfg    solver.Config
}

// NewScheduleService 创建排班服务
func NewScheduleService(
	demands *repository.DemandRepository,
	shifts *repository.ScheduleShiftRepository,
	availability *repository.AvailabilityRepository,
	rules *repository.EventRuleRepository,
	specialDays *repository.SpecialDayRepository,
	solverCfg solver.Config,
) *ScheduleService {
	return &ScheduleService{
		demands: demands, shifts: shifts, availability: availability,
		rules: rules, specialDays: specialDays, solverCfg: solverCfg,
	}
}

// EnsureSchedule 对一条 Demand 求解并落库班次行，幂等：已求解且 force=false
// 时直接返回既有行；user_edited=true 的行在重新求解时保留原值
// （由 ScheduleShiftRepository.Upsert 的 WHERE 子句保证)。求解前先对每条
// 需求条目应用规则引擎（规格数据流：availability + rule-adjusted demand →
// solver），再喂给求解器，而不是把 Demand 的原始负载直接当作求解输入。
func (s *ScheduleService) EnsureSchedule(ctx context.Context, demandID int64, location string, force bool) ([]*model.ScheduleShift, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	tenant := actor.TenantID
	demand, err := s.demands.GetByID(ctx, tenant, demandID)
	if err != nil {
		return nil, err
	}
	if demand == nil {
		return nil, errors.NotFound("demand", strconv.FormatInt(demandID, 10))
	}
	if demand.ScheduleGenerated && !force {
		return s.listShiftsForDemand(ctx, tenant, demand, location)
	}

	adjusted, err := s.applyRules(ctx, tenant, demand.RawPayload)
	if err != nil {
		return nil, err
	}

	employees, err := s.loadEmployees(ctx, tenant, demand.ID, demand.DateFrom, demand.DateTo, location)
	if err != nil {
		return nil, err
	}

	shiftInputs := make([]solver.ShiftInput, 0, len(adjusted))
	for _, it := range adjusted {
		shiftInputs = append(shiftInputs, solver.ShiftInput{
			Key:              model.ShiftUID(demand.ID, it.Date, it.Location, it.Start, it.End),
			Date:             it.Date,
			Start:            it.Start,
			End:              it.End,
			Demand:           it.Demand,
			NeedsExperienced: it.NeedsExperienced,
		})
	}

	out := solver.Solve(ctx, solver.Input{DemandID: demand.ID, Shifts: shiftInputs, Employees: employees}, s.solverCfg)

	results := make([]*model.ScheduleShift, 0, len(out.Shifts))
	for i, so := range out.Shifts {
		item := adjusted[i]
		row := &model.ScheduleShift{
			Tenant:            tenant,
			DemandID:          demand.ID,
			ShiftUID:          so.Key,
			Date:              item.Date,
			Location:          item.Location,
			Start:             item.Start,
			End:               item.End,
			DemandCount:       item.Demand,
			NeedsExperienced:  item.NeedsExperienced,
			AssignedEmployees: so.AssignedEmployees,
			MissingMinutes:    so.MissingMinutes,
			Meta:              so.Meta,
		}
		if err := s.shifts.Upsert(ctx, row); err != nil {
			return nil, err
		}
		results = append(results, row)
	}

	if err := s.demands.MarkSolved(ctx, demand.ID, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *ScheduleService) listShiftsForDemand(ctx context.Context, tenant model.TenantID, demand *model.Demand, location string) ([]*model.ScheduleShift, error) {
	seen := map[string]bool{}
	var out []*model.ScheduleShift
	for _, it := range demand.RawPayload {
		if seen[it.Date] {
			continue
		}
		seen[it.Date] = true
		rows, err := s.shifts.ListByDay(ctx, tenant, it.Date, location)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// applyRules 对需求负载中出现的每个 (date,location) 应用生效中的规则，
// 返回调整后的条目（求解器永远只看到规则调整后的需求，从不直接看原始负载）。
func (s *ScheduleService) applyRules(ctx context.Context, tenant model.TenantID, items []model.DemandItem) ([]model.DemandItem, error) {
	type dayLoc struct{ date, location string }
	seen := map[dayLoc]bool{}
	var allRules []ruleengine.ActiveRule
	for _, it := range items {
		k := dayLoc{it.Date, it.Location}
		if seen[k] {
			continue
		}
		seen[k] = true
		rules, err := loadActiveRules(ctx, s.rules, s.specialDays, tenant, it.Date, it.Location)
		if err != nil {
			return nil, err
		}
		allRules = append(allRules, rules...)
	}
	return ruleengine.Apply(items, allRules), nil
}

// loadEmployees 取出 [dateFrom,dateTo] 全部提交了可用性的员工，按员工聚合
// 成按日期分桶的时段（同一员工在范围内每天各有一行 Availability），并把
// 已确认的预分配班次提升为 PreAssignedShift（求解器视为强制变量）。
// 结果顺序由查询的 ORDER BY date, employee_name 决定，与 worker=1 时求解
// 结果的确定性要求一致。
func (s *ScheduleService) loadEmployees(ctx context.Context, tenant model.TenantID, demandID int64, dateFrom, dateTo, location string) ([]solver.Employee, error) {
	rows, err := s.availability.ListByDateRange(ctx, tenant, dateFrom, dateTo, location, true)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string]*solver.Employee, len(rows))
	var order []string
	for _, a := range rows {
		emp, ok := byEmployee[a.EmployeeID]
		if !ok {
			emp = &solver.Employee{
				ID:          a.EmployeeID,
				Experienced: a.Experienced,
				HoursMin:    a.HoursMin,
				HoursMax:    a.HoursMax,
				SlotsByDate: map[string][]model.Slot{},
			}
			byEmployee[a.EmployeeID] = emp
			order = append(order, a.EmployeeID)
		}
		emp.SlotsByDate[a.Date] = a.AvailableSlots
		if a.AssignedShift != nil && a.AssignedShift.Confirmed {
			emp.PreAssignedShift = model.ShiftUID(demandID, a.Date, a.AssignedShift.Location, a.AssignedShift.Start, a.AssignedShift.End)
		}
	}

	out := make([]solver.Employee, 0, len(order))
	for _, id := range order {
		out = append(out, *byEmployee[id])
	}
	return out, nil
}

// GetShift 按稳定外部键获取班次
func (s *ScheduleService) GetShift(ctx context.Context, shiftUID string) (*model.ScheduleShift, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	shift, err := s.shifts.GetByUID(ctx, actor.TenantID, shiftUID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.NotFound("shift", shiftUID)
	}
	return shift, nil
}

// GetDaySchedule 返回某 (date,location) 的全部班次
func (s *ScheduleService) GetDaySchedule(ctx context.Context, date, location string) ([]*model.ScheduleShift, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	return s.shifts.ListByDay(ctx, actor.TenantID, date, location)
}

// ShiftPatch 是经理对一条班次的手动覆盖，每个字段为 nil 表示保持不变。
type ShiftPatch struct {
	Date              *string
	Location          *string
	Start             *string
	End               *string
	DemandCount       *int
	NeedsExperienced  *bool
	Confirmed         *bool
	AssignedEmployees *[]string
}

// UpdateShift 经理手动编辑某班次（日期/地点/时间/需求人数/经验要求/
// 是否锁定/分配名单任意组合），标记 user_edited=true 并清空
// (approved_by, approved_at) ——编辑与审批是两个动作，编辑后必须重新审批。
// 此后重新求解不再覆盖这一行（见 ScheduleShiftRepository.Upsert）。
func (s *ScheduleService) UpdateShift(ctx context.Context, shiftUID string, patch ShiftPatch) (*model.ScheduleShift, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	if !actor.CanApprove() {
		return nil, errors.AuthorizationFailure("只有经理或所有者可以编辑班次")
	}
	shift, err := s.shifts.GetByUID(ctx, actor.TenantID, shiftUID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.NotFound("shift", shiftUID)
	}

	if patch.Date != nil {
		shift.Date = *patch.Date
	}
	if patch.Location != nil {
		shift.Location = *patch.Location
	}
	if patch.Start != nil {
		shift.Start = *patch.Start
	}
	if patch.End != nil {
		shift.End = *patch.End
	}
	if patch.DemandCount != nil {
		shift.DemandCount = *patch.DemandCount
	}
	if patch.NeedsExperienced != nil {
		shift.NeedsExperienced = *patch.NeedsExperienced
	}
	if patch.AssignedEmployees != nil {
		shift.AssignedEmployees = *patch.AssignedEmployees
	}
	if patch.Confirmed != nil {
		shift.Confirmed = *patch.Confirmed
	}

	missing := shift.DemandCount - len(shift.AssignedEmployees)
	if missing < 0 {
		missing = 0
	}
	shift.MissingMinutes = missing * minutesBetween(shift.Start, shift.End)
	shift.Meta.Uncovered = shift.MissingMinutes > 0
	// 手动编辑用一条覆盖整个班次的欠编区间代替求解器的逐切片分段，
	// 分配详情（per-segment 归属）不再适用，一并清空。
	shift.Meta.AssignedEmployeesDetail = nil
	if missing > 0 {
		shift.Meta.MissingSegments = []model.MissingSegment{{Start: shift.Start, End: shift.End, Missing: missing, MissingMinutes: shift.MissingMinutes}}
	} else {
		shift.Meta.MissingSegments = nil
	}

	shift.ApprovedBy = nil
	shift.ApprovedAt = nil

	if err := s.shifts.UpdateEdited(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

// ApproveShift 经理审批班次，锁定当前分配
func (s *ScheduleService) ApproveShift(ctx context.Context, shiftUID, approvedBy string) (*model.ScheduleShift, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	if !actor.CanApprove() {
		return nil, errors.AuthorizationFailure("只有经理或所有者可以审批班次")
	}
	shift, err := s.shifts.GetByUID(ctx, actor.TenantID, shiftUID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.NotFound("shift", shiftUID)
	}

	approvedAt := time.Now().UTC().Format(time.RFC3339)
	if err := s.shifts.Approve(ctx, actor.TenantID, shift.ID, approvedBy, approvedAt); err != nil {
		return nil, err
	}
	shift.Confirmed = true
	shift.ApprovedBy = &approvedBy
	shift.ApprovedAt = &approvedAt
	return shift, nil
}

func minutesBetween(start, end string) int {
	sm, em := timeutil.ToMinutes(start), timeutil.ToMinutes(end)
	if em <= sm {
		return 0
	}
	return em - sm
}
