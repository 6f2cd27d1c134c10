// Package service 编排仓储、规则引擎与求解器，实现规格第 4 节描述的
// 各业务操作。每个方法对应一个外部可见的操作，鉴权与租户解析已经由
// actorctx 中的调用者完成。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rotaforge/rotaforge/internal/actorctx"
	"github.com/rotaforge/rotaforge/internal/repository"
	"github.com/rotaforge/rotaforge/pkg/canonical"
	"github.com/rotaforge/rotaforge/pkg/errors"
	"github.com/rotaforge/rotaforge/pkg/model"
	"github.com/rotaforge/rotaforge/pkg/ruleengine"
)

// DemandService 编排需求的保存、读取与按默认模板的惰性派生。
type DemandService struct {
	demands     *repository.DemandRepository
	dayIndex    *repository.DayIndexRepository
	rules       *repository.EventRuleRepository
	specialDays *repository.SpecialDayRepository
	defaults    *repository.DefaultDemandRepository
}

// NewDemandService 创建需求服务
func NewDemandService(
	demands *repository.DemandRepository,
	dayIndex *repository.DayIndexRepository,
	rules *repository.EventRuleRepository,
	specialDays *repository.SpecialDayRepository,
	defaults *repository.DefaultDemandRepository,
) *DemandService {
	return &DemandService{demands: demands, dayIndex: dayIndex, rules: rules, specialDays: specialDays, defaults: defaults}
}

// SaveDay 规范化并持久化某 (date,location) 的需求。内容相同（含规范化后
// 的日哈希）的重复保存是幂等的：不产生新的 Demand 或日索引行（测试属性 7/8）。
// 调用者身份（租户）取自 ctx 中由外层鉴权写入的 actorctx.Actor。
func (s *DemandService) SaveDay(ctx context.Context, date, location string, items []model.DemandItem) (*model.Demand, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	tenant := actor.TenantID
	if date == "" || location == "" {
		return nil, errors.ValidationFailure("date/location", "不能为空")
	}

	canon := canonical.CanonicalizeDayItems(items, date, location)
	dayHash := canonical.DayHash(date, location, canon)

	existingIdx, err := s.dayIndex.Get(ctx, tenant, date, location)
	if err != nil {
		return nil, err
	}
	if existingIdx != nil && existingIdx.DayHash == dayHash {
		return s.demands.GetByID(ctx, tenant, existingIdx.DemandID)
	}

	demand, err := s.findOrCreateDemand(ctx, tenant, date, date, canon)
	if err != nil {
		return nil, err
	}

	idx := &model.DayDemandIndex{Tenant: tenant, Date: date, Location: location, DayHash: dayHash, DemandID: demand.ID}
	if existingIdx == nil {
		if err := s.dayIndex.Backfill(ctx, idx); err != nil {
			if errors.Is(err, errors.CodeIndexRace) {
				// 另一个并发写入者已经赢得了这个 (tenant,date,location)；
				// 重新查询，返回它落地的需求而不是报错。
				idx2, getErr := s.dayIndex.Get(ctx, tenant, date, location)
				if getErr != nil {
					return nil, getErr
				}
				if idx2 != nil {
					return s.demands.GetByID(ctx, tenant, idx2.DemandID)
				}
			}
			return nil, err
		}
	} else {
		if err := s.dayIndex.Upsert(ctx, idx); err != nil {
			return nil, err
		}
	}

	return demand, nil
}

func (s *DemandService) findOrCreateDemand(ctx context.Context, tenant model.TenantID, dateFrom, dateTo string, canon []model.DemandItem) (*model.Demand, error) {
	hash := canonical.ContentHash(canon)
	existing, err := s.demands.FindByHash(ctx, tenant, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	demand := &model.Demand{
		Tenant:      tenant,
		Name:        fmt.Sprintf("%s..%s", dateFrom, dateTo),
		RawPayload:  canon,
		ContentHash: hash,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	}
	if err := s.demands.Create(ctx, demand); err != nil {
		return nil, err
	}
	return demand, nil
}

// SaveRange 保存一段 [dateFrom,dateTo] 的需求负载：整段生成一个 Demand
// 行，并为负载中出现的每个 (date,location) 回填一行日索引，全部指向
// 同一个 Demand（测试属性「幂等范围保存」）。
func (s *DemandService) SaveRange(ctx context.Context, dateFrom, dateTo string, items []model.DemandItem) (*model.Demand, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	tenant := actor.TenantID
	if dateFrom == "" || dateTo == "" || dateFrom > dateTo {
		return nil, errors.ValidationFailure("date_from/date_to", "范围不合法")
	}

	canon := canonical.CanonicalizeRangeItems(items)
	demand, err := s.findOrCreateDemand(ctx, tenant, dateFrom, dateTo, canon)
	if err != nil {
		return nil, err
	}

	groups := canonical.GroupByDayLocation(canon)
	for key, dayItems := range groups {
		dayHash := canonical.DayHash(key.Date, key.Location, dayItems)
		idx := &model.DayDemandIndex{Tenant: tenant, Date: key.Date, Location: key.Location, DayHash: dayHash, DemandID: demand.ID}

		existing, err := s.dayIndex.Get(ctx, tenant, key.Date, key.Location)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.DayHash == dayHash {
			continue
		}
		if existing == nil {
			if err := s.dayIndex.Backfill(ctx, idx); err != nil && !errors.Is(err, errors.CodeIndexRace) {
				return nil, err
			}
		} else if err := s.dayIndex.Upsert(ctx, idx); err != nil {
			return nil, err
		}
	}

	return demand, nil
}

// ListDemands 分页列出需求，沿用原实现 count/results 的分页形状。
func (s *DemandService) ListDemands(ctx context.Context, dateFrom, dateTo string, offset, limit int) ([]*model.Demand, int, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, 0, errors.AuthorizationFailure(err.Error())
	}
	f := repository.DefaultListFilter(actor.TenantID).WithDateRange(dateFrom, dateTo)
	f.Offset, f.Limit = offset, limit
	return s.demands.List(ctx, f)
}

// GetByID 按主键获取需求详情
func (s *DemandService) GetByID(ctx context.Context, id int64) (*model.Demand, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	demand, err := s.demands.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if demand == nil {
		return nil, errors.NotFound("demand", fmt.Sprintf("%d", id))
	}
	return demand, nil
}

// GetDay 返回某 (date,location) 生效的需求条目。若从未显式保存过，惰性
// 派生自默认模板并叠加事件规则，不产生任何持久化写入。
func (s *DemandService) GetDay(ctx context.Context, date, location string) ([]model.DemandItem, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	tenant := actor.TenantID
	idx, err := s.dayIndex.Get(ctx, tenant, date, location)
	if err != nil {
		return nil, err
	}
	if idx != nil {
		demand, err := s.demands.GetByID(ctx, tenant, idx.DemandID)
		if err != nil {
			return nil, err
		}
		if demand != nil {
			return demand.RawPayload, nil
		}
	}
	return s.DefaultForDate(ctx, tenant, date, location)
}

// DefaultForDate 计算某天的默认需求（来自模板，按规则调整），供「从未
// 显式保存过」的日期与周视图复用。
func (s *DemandService) DefaultForDate(ctx context.Context, tenant model.TenantID, date, location string) ([]model.DemandItem, error) {
	weekday, err := weekdayOf(date)
	if err != nil {
		return nil, err
	}

	templates, err := s.defaults.ListByLocation(ctx, tenant, location)
	if err != nil {
		return nil, err
	}
	items := pickTemplate(templates, weekday)

	dayItems := make([]model.DemandItem, len(items))
	for i, it := range items {
		dayItems[i] = model.DemandItem{Date: date, Location: location, Start: it.Start, End: it.End, Demand: it.Demand, NeedsExperienced: it.NeedsExperienced}
	}

	active, err := s.activeRulesFor(ctx, tenant, date, location)
	if err != nil {
		return nil, err
	}
	return ruleengine.Apply(dayItems, active), nil
}

// WeekDay 是「4.12 补充功能」中的默认模板周视图的一天：七天，每天标明需求
// 是否继承自模板（inherited=true）还是显式保存过（inherited=false）。
type WeekDay struct {
	Date      string
	Items     []model.DemandItem
	Inherited bool
}

// GetWeekView 返回从 startDate 起 7 天的需求视图
func (s *DemandService) GetWeekView(ctx context.Context, startDate, location string) ([]WeekDay, error) {
	actor, err := actorctx.MustFromContext(ctx)
	if err != nil {
		return nil, errors.AuthorizationFailure(err.Error())
	}
	tenant := actor.TenantID
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, errors.ValidationFailure("start_date", "必须是 YYYY-MM-DD")
	}

	out := make([]WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		idx, err := s.dayIndex.Get(ctx, tenant, date, location)
		if err != nil {
			return nil, err
		}
		if idx != nil {
			demand, err := s.demands.GetByID(ctx, tenant, idx.DemandID)
			if err != nil {
				return nil, err
			}
			out = append(out, WeekDay{Date: date, Items: demand.RawPayload, Inherited: false})
			continue
		}
		items, err := s.DefaultForDate(ctx, tenant, date, location)
		if err != nil {
			return nil, err
		}
		out = append(out, WeekDay{Date: date, Items: items, Inherited: true})
	}
	return out, nil
}

func (s *DemandService) activeRulesFor(ctx context.Context, tenant model.TenantID, date, location string) ([]ruleengine.ActiveRule, error) {
	return loadActiveRules(ctx, s.rules, s.specialDays, tenant, date, location)
}

// loadActiveRules 取出某 (tenant,date,location) 生效的规则集合（SpecialDay
// 连接其 EventRule），供 DemandService（默认模板视图）与 ScheduleService
// （求解前的需求调整）共用，二者都需要同一套「规则引擎只是预处理器」语义。
func loadActiveRules(ctx context.Context, rules *repository.EventRuleRepository, specialDays *repository.SpecialDayRepository, tenant model.TenantID, date, location string) ([]ruleengine.ActiveRule, error) {
	sds, err := specialDays.ListForDate(ctx, tenant, date, location)
	if err != nil {
		return nil, err
	}
	out := make([]ruleengine.ActiveRule, 0, len(sds))
	for _, sd := range sds {
		if !sd.Active {
			continue
		}
		rule, err := rules.GetByID(ctx, tenant, sd.RuleID)
		if err != nil {
			return nil, err
		}
		if rule == nil || !rule.Active {
			continue
		}
		out = append(out, ruleengine.ActiveRule{Date: sd.Date, Location: sd.Location, CreatedAt: sd.CreatedAt, Rule: *rule})
	}
	return out, nil
}

func pickTemplate(templates []*model.DefaultDemand, weekday int) []model.DemandItem {
	var wildcard, exact []model.DemandItem
	for _, t := range templates {
		if t.Weekday == nil {
			wildcard = t.Items
		} else if *t.Weekday == weekday {
			exact = t.Items
		}
	}
	if exact != nil {
		return exact
	}
	return wildcard
}

func weekdayOf(date string) (int, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, errors.ValidationFailure("date", "必须是 YYYY-MM-DD")
	}
	return int(t.Weekday()), nil
}
