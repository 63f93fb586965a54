package filter

import (
	"sync"

	"rnb-admin/internal/model"
)

// 文档注释：列表与选中状态
// 背景：查询词、维度或条目集合任一变化都同步重算可见子集。
// 约束：选中不受过滤影响，被过滤掉的条目仍可保持选中；条目集合替换后选中标识不存在时清空。
type State struct {
	mu       sync.RWMutex
	opt      Options
	items    []model.Item
	query    string
	mode     Mode
	visible  []model.Item
	selected string
}

func NewState(opt Options) *State {
	return &State{opt: opt, mode: ModeAll}
}

// SetItems：替换条目集合（重新拉取后调用）
func (s *State) SetItems(items []model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]model.Item{}, items...)
	if s.selected != "" && s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
	s.recompute()
}

func (s *State) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.recompute()
}

func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.recompute()
}

// Visible：当前可见子集
func (s *State) Visible() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Item{}, s.visible...)
}

// Items：全部已加载条目
func (s *State) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Item{}, s.items...)
}

// Select：选中任一已加载条目；未加载的标识返回 false
func (s *State) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return false
	}
	s.selected = id
	return true
}

// Clear：取消选中
func (s *State) Clear() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// Selected：当前选中条目
func (s *State) Selected() (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(s.selected)
	if s.selected == "" || i < 0 {
		return model.Item{}, false
	}
	return s.items[i], true
}

// 文档注释：就地修改选中条目（乐观更新）
// 背景：表单保存或地图切换后先改本地副本，后端确认后再整体重新拉取。
func (s *State) UpdateSelected(fn func(*model.Item)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(s.selected)
	if s.selected == "" || i < 0 {
		return false
	}
	it := s.items[i]
	it.RNBIDs = append([]string{}, it.RNBIDs...)
	fn(&it)
	s.items[i] = it
	s.recompute()
	return true
}

func (s *State) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) recompute() {
	s.visible = Filter(s.items, s.query, s.mode, s.opt)
}
