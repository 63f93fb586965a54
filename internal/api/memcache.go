package api

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMemoryCacheSize：进程内缓存的默认条目上限
const DefaultMemoryCacheSize = 4096

// 文档注释：进程内 LRU 缓存（Redis 未配置时的就近查询缓存）
// 背景：同一建筑常被反复点选，单实例部署无需外部缓存也能减少注册表请求。
// 约束：容量满时淘汰最久未访问的条目；过期条目在读取时惰性删除。
type MemoryCache struct {
	mu   sync.Mutex
	cap  int
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type memEntry struct {
	k   string
	v   string
	exp time.Time
}

func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCacheSize
	}
	return &MemoryCache{cap: capacity, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dict[key]
	if !ok {
		return "", false
	}
	it := e.Value.(memEntry)
	if !c.now().Before(it.exp) {
		c.lst.Remove(e)
		delete(c.dict, key)
		return "", false
	}
	c.lst.MoveToFront(e)
	return it.v, true
}

func (c *MemoryCache) Set(_ context.Context, key, val string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := memEntry{k: key, v: val, exp: c.now().Add(ttl)}
	if e, ok := c.dict[key]; ok {
		e.Value = it
		c.lst.MoveToFront(e)
		return
	}
	c.dict[key] = c.lst.PushFront(it)
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		delete(c.dict, back.Value.(memEntry).k)
		c.lst.Remove(back)
	}
}

// Len：当前条目数（含未清理的过期条目）
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
