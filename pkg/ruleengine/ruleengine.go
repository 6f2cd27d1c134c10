// Package ruleengine 在求解前对原始需求应用 SpecialDay × EventRule 变换。
// 规则引擎只变换求解器的输入，对日历语义一无所知的是求解器本身
// （见 DESIGN.md“规则引擎作为预处理器”）。
package ruleengine

import (
	"math"
	"sort"

	"github.com/rotaforge/rotaforge/pkg/model"
)

// ActiveRule 是规则引擎求值所需的一条激活规则（SpecialDay 与其 EventRule
// 连接后的视图）。
type ActiveRule struct {
	Date      string
	Location  string // "" 表示通配符
	CreatedAt string // 用于同组内按创建顺序排序
	Rule      model.EventRule
}

// Apply 对一组日形式需求条目应用激活规则集合，返回变换后的新切片；
// 绝不修改入参。规则按 (date,location) 分组，组内先通配符后精确匹配，
// 组内保持创建顺序。
func Apply(items []model.DemandItem, rules []ActiveRule) []model.DemandItem {
	byKey := make(map[[2]string][]ActiveRule)
	for _, r := range rules {
		k := [2]string{r.Date, r.Location}
		byKey[k] = append(byKey[k], r)
	}
	for k := range byKey {
		sort.SliceStable(byKey[k], func(i, j int) bool {
			return byKey[k][i].CreatedAt < byKey[k][j].CreatedAt
		})
	}

	out := make([]model.DemandItem, len(items))
	for i, it := range items {
		wildcard := byKey[[2]string{it.Date, ""}]
		exact := byKey[[2]string{it.Date, it.Location}]

		ordered := make([]ActiveRule, 0, len(wildcard)+len(exact))
		ordered = append(ordered, wildcard...)
		ordered = append(ordered, exact...)

		d := it.Demand
		needsExp := it.NeedsExperienced
		for _, ar := range ordered {
			if !ar.Rule.Active {
				continue
			}
			switch ar.Rule.Mode {
			case model.RuleModeOverride:
				d = int(math.Round(ar.Rule.Value))
			case model.RuleModeMultiplier:
				d = int(math.Ceil(float64(d) * ar.Rule.Value))
			}
			if ar.Rule.MinDemand != nil && d < *ar.Rule.MinDemand {
				d = *ar.Rule.MinDemand
			}
			if ar.Rule.MaxDemand != nil && d > *ar.Rule.MaxDemand {
				d = *ar.Rule.MaxDemand
			}
			if ar.Rule.NeedsExperiencedDefault {
				needsExp = true // 单调：一旦为真，永不清除
			}
		}
		if d < 0 {
			d = 0
		}

		transformed := it
		transformed.Demand = d
		transformed.NeedsExperienced = needsExp
		out[i] = transformed
	}
	return out
}
