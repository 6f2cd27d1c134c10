// Package canonical 把需求负载规范化为哈希稳定的形式，并计算内容哈希。
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/rotaforge/rotaforge/pkg/model"
	"github.com/rotaforge/rotaforge/pkg/timeutil"
)

// DayKey 标识一个 (date, location) 分组。
type DayKey struct {
	Date     string
	Location string
}

// CanonicalizeDayItems 规范化为“日形式”：{date,location,start,end,demand,
// needs_experienced}，丢弃规范化后非法的条目，按
// (start,end,demand,needs_experienced) 升序排序。
func CanonicalizeDayItems(items []model.DemandItem, date, location string) []model.DemandItem {
	out := make([]model.DemandItem, 0, len(items))
	for _, it := range items {
		start, end, ok := timeutil.ValidateSlot(it.Start, it.End)
		if !ok {
			continue
		}
		out = append(out, model.DemandItem{
			Date:             date,
			Location:         location,
			Start:            start,
			End:              end,
			Demand:           maxInt(0, it.Demand),
			NeedsExperienced: it.NeedsExperienced,
		})
	}
	sortDayForm(out)
	return out
}

// CanonicalizeTemplateItems 规范化为“模板形式”：{start,end,demand,
// needs_experienced}（无 date/location），排序规则与日形式相同。
func CanonicalizeTemplateItems(items []model.DemandItem) []model.DemandItem {
	out := make([]model.DemandItem, 0, len(items))
	for _, it := range items {
		start, end, ok := timeutil.ValidateSlot(it.Start, it.End)
		if !ok {
			continue
		}
		out = append(out, model.DemandItem{
			Start:            start,
			End:              end,
			Demand:           maxInt(0, it.Demand),
			NeedsExperienced: it.NeedsExperienced,
		})
	}
	sortDayForm(out)
	return out
}

func sortDayForm(items []model.DemandItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Demand != b.Demand {
			return a.Demand < b.Demand
		}
		return !a.NeedsExperienced && b.NeedsExperienced
	})
}

// CanonicalizeRangeItems 规范化跨多天的负载：与 CanonicalizeDayItems 不同，
// 每个条目保留自己的 date/location（调用方在保存一段 [date_from,date_to]
// 范围时，条目本身已经分属不同日期），排序键在 (start,end,demand,
// needs_experienced) 之前先按 (date,location) 分组排序。
func CanonicalizeRangeItems(items []model.DemandItem) []model.DemandItem {
	out := make([]model.DemandItem, 0, len(items))
	for _, it := range items {
		start, end, ok := timeutil.ValidateSlot(it.Start, it.End)
		if !ok {
			continue
		}
		out = append(out, model.DemandItem{
			Date:             it.Date,
			Location:         it.Location,
			Start:            start,
			End:              end,
			Demand:           maxInt(0, it.Demand),
			NeedsExperienced: it.NeedsExperienced,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.Demand != b.Demand {
			return a.Demand < b.Demand
		}
		return !a.NeedsExperienced && b.NeedsExperienced
	})
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// GroupByDayLocation 把一个 Demand 负载按 (date, location) 分组。
func GroupByDayLocation(items []model.DemandItem) map[DayKey][]model.DemandItem {
	out := make(map[DayKey][]model.DemandItem)
	for _, it := range items {
		if it.Date == "" {
			continue
		}
		k := DayKey{Date: it.Date, Location: it.Location}
		out[k] = append(out[k], it)
	}
	return out
}

// dayItemMap 把一个日形式条目转换为带排序键的通用 map，供哈希序列化使用。
func dayItemMap(it model.DemandItem) map[string]interface{} {
	return map[string]interface{}{
		"date":              it.Date,
		"location":          it.Location,
		"start":             it.Start,
		"end":               it.End,
		"demand":            it.Demand,
		"needs_experienced": it.NeedsExperienced,
	}
}

// HashPayload 计算 obj 的规范 JSON 序列化（字典序排序键、无多余空白）的
// SHA-256，十六进制小写输出。依赖 encoding/json 对 map[string]interface{}
// 按键名字典序排序的行为来保证跨平台稳定性。
func HashPayload(obj interface{}) string {
	b, err := json.Marshal(obj)
	if err != nil {
		b = []byte(`"` + err.Error() + `"`)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// DayHash 是某 (date,location) 日形式条目列表的哈希，items 须已规范化排序。
func DayHash(date, location string, items []model.DemandItem) string {
	maps := make([]map[string]interface{}, len(items))
	for i, it := range items {
		maps[i] = dayItemMap(it)
	}
	return HashPayload(map[string]interface{}{
		"date":     date,
		"location": location,
		"items":    maps,
	})
}

// ContentHash 是整个 Demand 负载（已规范化排序的日形式条目列表）的哈希，
// 即 Demand.ContentHash 的取值。两个规范形式相同的负载必须映射到同一个值。
func ContentHash(items []model.DemandItem) string {
	maps := make([]map[string]interface{}, len(items))
	for i, it := range items {
		maps[i] = dayItemMap(it)
	}
	return HashPayload(maps)
}

// StripDayItem 只保留外部可见字段 {start,end,demand,needs_experienced}。
func StripDayItem(it model.DemandItem) model.DemandItem {
	return model.DemandItem{
		Start:            it.Start,
		End:              it.End,
		Demand:           it.Demand,
		NeedsExperienced: it.NeedsExperienced,
	}
}
