package mapview

// 文档注释：切换注册表标识
// 背景：点选同一建筑两次即取消关联；顺序序列上的集合语义。
// 约束：已存在则移除（剩余元素顺序不变），否则追加到末尾；返回新切片，不修改入参。
func Toggle(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	found := false
	for _, v := range ids {
		if v == id && !found {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// StyleDiff：一次样式同步需要执行的操作
type StyleDiff struct {
	Reset     []string
	Highlight []string
}

// 文档注释：矢量瓦片高亮状态跟踪
// 背景：瓦片图层按要素标识单独设置样式；每次关联列表变化都要把不再关联的要素恢复默认，再高亮当前全部关联要素。
// 约束：不论变化来自点击切换还是表单编辑/重新拉取，都走 Apply。
type Styles struct {
	previous []string
}

// Apply：计算与上一次列表的差异并记住新列表
func (s *Styles) Apply(ids []string) StyleDiff {
	cur := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		cur[id] = struct{}{}
	}
	var d StyleDiff
	for _, prev := range s.previous {
		if _, ok := cur[prev]; !ok {
			d.Reset = append(d.Reset, prev)
		}
	}
	d.Highlight = append(d.Highlight, ids...)
	s.previous = append([]string{}, ids...)
	return d
}

// Highlighted：当前已高亮的标识
func (s *Styles) Highlighted() []string { return append([]string{}, s.previous...) }

func (s *Styles) reset() { s.previous = nil }
