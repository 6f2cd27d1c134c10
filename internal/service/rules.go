package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/rotaforge/rotaforge/internal/actorctx"
	"github.com/rotaforge/rotaforge/internal/repository"
	"github.com/rotaforge/rotaforge/pkg/errors"
	"github.com/rotaforge/rotaforge/pkg/model"
)

// RuleService 编排事件规则与特殊日期的创建与绑定。
type RuleService struct {
	rules       *repository.EventRuleRepository
	specialDays *repository.SpecialDayRepository
}

// NewRuleService 创建规则服务
func NewRuleService(rules *repository.EventRuleRepository, specialDays *repository.SpecialDayRepository) *RuleService {
	return &RuleService{rules: rules, specialDays: specialDays}
}

// CreateRule 创建一条事件规则（override/multiplier，夹紧区间，
// needs_experienced_default）。
func (s *RuleService) CreateRule(ctx context.Context, rule *model.EventRule) (*model.EventRule, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	if !actor.CanApprove() {
		return nil, errors.AuthorizationFailure("只有经理或所有者可以创建事件规则")
	}
	if rule.Mode != model.RuleModeOverride && rule.Mode != model.RuleModeMultiplier {
		return nil, errors.ValidationFailure("mode", "必须是 override 或 multiplier")
	}
	if rule.MinDemand != nil && rule.MaxDemand != nil && *rule.MinDemand > *rule.MaxDemand {
		return nil, errors.ValidationFailure("min_demand/max_demand", "min_demand 不能大于 max_demand")
	}

	rule.Tenant = actor.TenantID
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ListActiveRules 列出某租户全部生效中的事件规则
func (s *RuleService) ListActiveRules(ctx context.Context) ([]*model.EventRule, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	return s.rules.ListActive(ctx, actor.TenantID)
}

// BindSpecialDay 把某日期（可选限定地点，""为通配符）绑定到一条事件规则。
// 重复绑定同一 (tenant,date,location) 会覆盖既有绑定（与 Demand 的
// 内容寻址不可变性不同：SpecialDay 是可变的调度元数据）。
func (s *RuleService) BindSpecialDay(ctx context.Context, sd *model.SpecialDay) (*model.SpecialDay, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	if !actor.CanApprove() {
		return nil, errors.AuthorizationFailure("只有经理或所有者可以绑定特殊日期")
	}
	if sd.Date == "" {
		return nil, errors.ValidationFailure("date", "不能为空")
	}
	rule, err := s.rules.GetByID(ctx, actor.TenantID, sd.RuleID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, errors.NotFound("event_rule", sd.RuleID.String())
	}

	sd.Tenant = actor.TenantID
	sd.Active = true
	if err := s.specialDays.Upsert(ctx, sd); err != nil {
		return nil, err
	}
	return sd, nil
}

// GetRule 按主键获取事件规则
func (s *RuleService) GetRule(ctx context.Context, id uuid.UUID) (*model.EventRule, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	rule, err := s.rules.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, errors.NotFound("event_rule", id.String())
	}
	return rule, nil
}

// SpecialDaysForDate 取出某天（精确地点 + 通配地点）全部生效的特殊日期绑定
func (s *RuleService) SpecialDaysForDate(ctx context.Context, date, location string) ([]*model.SpecialDay, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	return s.specialDays.ListForDate(ctx, actor.TenantID, date, location)
}
