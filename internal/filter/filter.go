// 包 filter：条目列表的查询过滤与当前选中状态
package filter

import (
	"strings"

	"rnb-admin/internal/model"

	"golang.org/x/text/cases"
)

// Mode：过滤维度
type Mode string

const (
	ModeAll       Mode = "all"
	ModeReference Mode = "reference"
	ModeRNB       Mode = "rnb"
	ModeAddress   Mode = "address"
)

// ParseMode：解析过滤维度，registry-id 为 rnb 的别名；未知值返回 ok=false
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ModeAll, true
	case "reference", "ref":
		return ModeReference, true
	case "rnb", "registry-id":
		return ModeRNB, true
	case "address":
		return ModeAddress, true
	}
	return ModeAll, false
}

// Options：过滤细节开关
type Options struct {
	// ReferenceIncludesName：reference 维度同时匹配名称
	ReferenceIncludesName bool
}

// 文档注释：按查询词过滤条目
// 约束：查询词去首尾空白后为空时原样返回全部条目；匹配为大小写不敏感的子串匹配；结果保持输入顺序。
func Filter(items []model.Item, query string, mode Mode, opt Options) []model.Item {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	if q == "" {
		return append([]model.Item{}, items...)
	}
	has := func(s string) bool { return strings.Contains(fold.String(s), q) }
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if match(it, mode, opt, has) {
			out = append(out, it)
		}
	}
	return out
}

func match(it model.Item, mode Mode, opt Options, has func(string) bool) bool {
	ref := has(it.ID) || (opt.ReferenceIncludesName && has(it.Name))
	rnb := false
	for _, id := range it.RNBIDs {
		if has(id) {
			rnb = true
			break
		}
	}
	switch mode {
	case ModeReference:
		return ref
	case ModeRNB:
		return rnb
	case ModeAddress:
		return has(it.Address)
	default:
		return ref || rnb || has(it.Name) || has(it.Address)
	}
}
