// 包 items：基于本地 JSON 文件的条目存储（目录接口的数据源）
package items

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"rnb-admin/internal/model"
	"rnb-admin/internal/normalize"
)

// ErrNotFound：文件中不存在该条目
var ErrNotFound = errors.New("items: not found")

const (
	// UpdateSource：写入 last_update_source 的来源标记
	UpdateSource = "DetailPanel editable-form"

	fieldAddressAlias = "die_adresse"
	fieldUpdateSource = "last_update_source"
	fieldUpdateDate   = "last_update_date"
)

// 文档注释：JSON 文件条目存储
// 背景：数据量很小（一个对账批次），每次读取都重新解析文件，编辑后整体回写。
// 约束：进程内读写经互斥锁串行化；不做跨进程锁，也不做并发冲突检测。
type Store struct {
	mu    sync.Mutex
	path  string
	limit int
	now   func() time.Time
}

// NewStore：limit<=0 表示不截断
func NewStore(path string, limit int) *Store {
	return &Store{path: path, limit: limit, now: time.Now}
}

// WithClock：替换时间源（测试用）
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Path：数据文件路径
func (s *Store) Path() string { return s.path }

// List：按文件顺序返回原始记录，最多 limit 条
func (s *Store) List(ctx context.Context) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.read()
	if err != nil {
		return nil, err
	}
	if s.limit > 0 && len(recs) > s.limit {
		recs = recs[:s.limit]
	}
	return recs, nil
}

// 文档注释：按 Code_bat_ter 更新单条记录并回写文件
// 背景：标识按字符串比较（文件中可能是数字）；只改补丁中出现的字段，并记录更新来源与日期。
// 约束：rnbIds 写入反提案字段，编码为 JSON 文本列表，不覆盖原始匹配 rnb_ids。
func (s *Store) Update(ctx context.Context, id string, p model.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.read()
	if err != nil {
		return err
	}
	idx := -1
	for i, r := range recs {
		if r.String(normalize.FieldID) == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	if err := apply(recs[idx], p, s.now()); err != nil {
		return err
	}
	return s.write(recs)
}

func apply(r model.RawRecord, p model.Patch, now time.Time) error {
	if p.Name != nil {
		r[normalize.FieldName] = *p.Name
	}
	if p.Address != nil {
		r[normalize.FieldStreet] = *p.Address
		r[fieldAddressAlias] = *p.Address
	}
	if p.Surface != nil {
		r[normalize.FieldSurface] = surfaceValue(*p.Surface)
	}
	if p.Usage != nil {
		r[normalize.FieldUsage] = *p.Usage
	}
	if p.Gestionnaire != nil {
		r[normalize.FieldGestionnaire] = *p.Gestionnaire
	}
	if p.HasRNBIDs {
		ids := p.RNBIDs
		if ids == nil {
			ids = []string{}
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		r[normalize.FieldCounterRNBIDs] = string(b)
	}
	r[fieldUpdateSource] = UpdateSource
	r[fieldUpdateDate] = now.Format(time.DateOnly)
	return nil
}

// surfaceValue：数值文本存为数字，其余原样存字符串
func surfaceValue(s string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	return f
}

func (s *Store) read() ([]model.RawRecord, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("items: read %s: %w", s.path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var recs []model.RawRecord
	if err := dec.Decode(&recs); err != nil {
		return nil, fmt.Errorf("items: decode %s: %w", s.path, err)
	}
	return recs, nil
}

// write：先写临时文件再替换，避免中途失败留下半截 JSON
func (s *Store) write(recs []model.RawRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("items: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".items-*.json")
	if err != nil {
		return fmt.Errorf("items: write: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("items: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("items: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("items: write: %w", err)
	}
	return nil
}
