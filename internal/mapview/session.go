// 包 mapview：地图交互层（点标记、当前区域取景、点击就近查询并切换注册表标识）
package mapview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"rnb-admin/internal/metrics"
	"rnb-admin/internal/model"
)

const (
	// ClickDebounce：两次被接受的点击之间的最小间隔
	ClickDebounce = 600 * time.Millisecond
	// DefaultRadius：就近查询半径（米）
	DefaultRadius = 5
)

// ErrClosed：会话已销毁
var ErrClosed = errors.New("mapview: session closed")

// Lookup：就近建筑查询（由注册表客户端实现）
type Lookup interface {
	Closest(ctx context.Context, lat, lng float64, radius int) (string, error)
}

// Outcome：一次点击的处理结果
type Outcome string

const (
	OutcomeDebounced    Outcome = "debounced"
	OutcomeNoSelection  Outcome = "no_selection"
	OutcomeLookupFailed Outcome = "lookup_failed"
	OutcomeEmpty        Outcome = "empty"
	OutcomeAdded        Outcome = "added"
	OutcomeRemoved      Outcome = "removed"
)

// ClickResult：点击结果与切换后的关联列表
type ClickResult struct {
	Outcome Outcome
	RNBID   string
	RNBIDs  []string
	Styles  StyleDiff
}

// Changed：关联列表是否发生变化
func (r ClickResult) Changed() bool {
	return r.Outcome == OutcomeAdded || r.Outcome == OutcomeRemoved
}

// Options：会话参数，零值字段使用默认值
type Options struct {
	Debounce time.Duration
	Radius   int
	Clock    func() time.Time
	Logger   *slog.Logger
}

// 文档注释：地图交互会话（组件级状态）
// 背景：去抖时间戳、当前条目、瓦片高亮状态都属于单个地图实例，随实例创建与销毁，不使用全局变量。
// 约束：状态机 idle → looking-up → idle；距上次被接受的点击不足 Debounce 的点击一律丢弃（包括查询进行中），不排队；
// 查询失败只记录日志，不改动关联列表。
type Session struct {
	mu        sync.Mutex
	lookup    Lookup
	debounce  time.Duration
	radius    int
	now       func() time.Time
	log       *slog.Logger
	lastClick time.Time
	active    *model.Item
	styles    Styles
	bounds    Bounds
	hasBounds bool
	focus     []model.LatLng
	closed    bool
}

func NewSession(lookup Lookup, opt Options) *Session {
	s := &Session{lookup: lookup, debounce: opt.Debounce, radius: opt.Radius, now: opt.Clock, log: opt.Logger}
	if s.debounce <= 0 {
		s.debounce = ClickDebounce
	}
	if s.radius <= 0 {
		s.radius = DefaultRadius
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// 文档注释：设置当前条目
// 背景：切换详情目标时调用；同步高亮状态，区域或坐标变化时重新取景。
// 返回：高亮差异，以及视口是否需要重新适配。
func (s *Session) SetActive(it model.Item) (StyleDiff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := it
	cp.RNBIDs = append([]string{}, it.RNBIDs...)
	cp.Zone = append([]model.LatLng{}, it.Zone...)
	s.active = &cp
	return s.styles.Apply(cp.RNBIDs), s.refit()
}

// SetRNBIDs：外部（表单、重新拉取）改动关联列表时同步高亮
func (s *Session) SetRNBIDs(ids []string) StyleDiff {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.RNBIDs = append([]string{}, ids...)
	}
	return s.styles.Apply(ids)
}

// Active：当前条目副本
func (s *Session) Active() (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return model.Item{}, false
	}
	cp := *s.active
	cp.RNBIDs = append([]string{}, s.active.RNBIDs...)
	return cp, true
}

// Bounds：当前视口范围
func (s *Session) Bounds() (Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds, s.hasBounds
}

// refit：取景点集变化时重新计算视口，返回是否变化
func (s *Session) refit() bool {
	pts := focusPoints(*s.active)
	if s.hasBounds && samePoints(pts, s.focus) {
		return false
	}
	b, ok := BoundsOf(pts)
	if !ok {
		return false
	}
	s.focus = append([]model.LatLng{}, pts...)
	s.bounds, s.hasBounds = b, true
	return true
}

// accept：去抖判定并记录时间戳
func (s *Session) accept() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	now := s.now()
	if !s.lastClick.IsZero() && now.Sub(s.lastClick) < s.debounce {
		return false, nil
	}
	s.lastClick = now
	return true, nil
}

// 文档注释：处理一次地图点击
// 背景：点击位置就近查询注册表，取第一条结果的标识，在当前条目的关联列表中切换。
// 约束：时间戳在查询前记录，查询期间的点击同样被去抖丢弃；查询错误吞掉并记录日志。
// 返回：仅在会话已销毁时返回错误。
func (s *Session) Click(ctx context.Context, at model.LatLng) (ClickResult, error) {
	ok, err := s.accept()
	if err != nil {
		return ClickResult{}, err
	}
	if !ok {
		metrics.MapClicksTotal.WithLabelValues(string(OutcomeDebounced)).Inc()
		return ClickResult{Outcome: OutcomeDebounced, RNBIDs: s.currentIDs()}, nil
	}
	if _, has := s.Active(); !has {
		metrics.MapClicksTotal.WithLabelValues(string(OutcomeNoSelection)).Inc()
		return ClickResult{Outcome: OutcomeNoSelection}, nil
	}
	id, err := s.lookup.Closest(ctx, at.Lat(), at.Lng(), s.radius)
	if err != nil || id == "" {
		outcome := OutcomeLookupFailed
		if err == nil || isEmpty(err) {
			outcome = OutcomeEmpty
			s.log.Debug("map_click_no_building", "lat", at.Lat(), "lng", at.Lng())
		} else {
			s.log.Warn("map_click_lookup_error", "lat", at.Lat(), "lng", at.Lng(), "err", err)
		}
		metrics.MapClicksTotal.WithLabelValues(string(outcome)).Inc()
		return ClickResult{Outcome: outcome, RNBIDs: s.currentIDs()}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ClickResult{}, ErrClosed
	}
	if s.active == nil {
		return ClickResult{Outcome: OutcomeNoSelection}, nil
	}
	outcome := OutcomeAdded
	if s.active.HasRNBID(id) {
		outcome = OutcomeRemoved
	}
	s.active.RNBIDs = Toggle(s.active.RNBIDs, id)
	diff := s.styles.Apply(s.active.RNBIDs)
	metrics.MapClicksTotal.WithLabelValues(string(outcome)).Inc()
	s.log.Debug("map_click_toggle", "item", s.active.ID, "rnb_id", id, "outcome", outcome)
	return ClickResult{Outcome: outcome, RNBID: id, RNBIDs: append([]string{}, s.active.RNBIDs...), Styles: diff}, nil
}

func (s *Session) currentIDs() []string {
	it, ok := s.Active()
	if !ok {
		return nil
	}
	return it.RNBIDs
}

// 文档注释：销毁会话
// 背景：对应地图组件卸载；清空高亮记忆与去抖时间戳，之后的点击返回 ErrClosed。
// 返回：需要恢复默认样式的标识。
func (s *Session) Close() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.styles.Highlighted()
	s.styles.reset()
	s.lastClick = time.Time{}
	s.active = nil
	s.hasBounds = false
	s.focus = nil
	s.closed = true
	return prev
}

// isEmpty：无结果类错误（由查询实现通过 Empty() 方法声明）
func isEmpty(err error) bool {
	var e interface{ Empty() bool }
	if errors.As(err, &e) {
		return e.Empty()
	}
	return false
}
