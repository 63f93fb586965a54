package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"rnb-admin/internal/logger"
	"rnb-admin/internal/mapview"
	"rnb-admin/internal/metrics"
	"rnb-admin/internal/rnb"

	"github.com/redis/go-redis/v9"
)

// Cache：就近查询结果缓存
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, val string, ttl time.Duration)
}

type redisCache struct{ rc *redis.Client }

// NewRedisCache：rc 为空时返回 nil，路由按无缓存处理
func NewRedisCache(rc *redis.Client) Cache {
	if rc == nil {
		return nil
	}
	return redisCache{rc: rc}
}

func (c redisCache) Get(ctx context.Context, key string) (string, bool) {
	s, err := c.rc.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("redis_get_error", "key", key, "err", err)
		}
		return "", false
	}
	return s, s != ""
}

func (c redisCache) Set(ctx context.Context, key, val string, ttl time.Duration) {
	if err := c.rc.Set(ctx, key, val, ttl).Err(); err != nil {
		logger.L().Warn("redis_set_error", "key", key, "err", err)
	}
}

// closestKey：坐标保留 5 位小数（约 1 米）
func closestKey(lat, lng float64, radius int) string {
	return fmt.Sprintf("rnb:closest:%.5f:%.5f:%d", lat, lng, radius)
}

type closestResult struct {
	RNBID string `json:"rnb_id"`
}

type registryHandler struct {
	lookup mapview.Lookup
	cache  Cache
	radius int
	ttl    time.Duration
}

// 文档注释：就近建筑查询代理
// 背景：控制台与前端经本服务访问注册表，命中结果写入 Redis，重复点选同一位置不再请求注册表。
// 约束：无结果返回 200 与空标识且不缓存；注册表失败返回 502。
func (h *registryHandler) closest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeMessage(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radius := h.radius
	if s := q.Get("radius"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			radius = n
		}
	}
	if radius <= 0 {
		radius = mapview.DefaultRadius
	}
	ctx := r.Context()
	key := closestKey(lat, lng, radius)
	if h.cache != nil {
		if id, ok := h.cache.Get(ctx, key); ok {
			metrics.ClosestCacheHitsTotal.Inc()
			writeJSON(w, http.StatusOK, closestResult{RNBID: id})
			return
		}
		metrics.ClosestCacheMissesTotal.Inc()
	}
	if h.lookup == nil {
		writeMessage(w, http.StatusServiceUnavailable, "registry not configured")
		return
	}
	id, err := h.lookup.Closest(ctx, lat, lng, radius)
	if err != nil && !errors.Is(err, rnb.ErrNoBuilding) {
		logger.L().Warn("registry_closest_error", "lat", lat, "lng", lng, "err", err)
		writeMessage(w, http.StatusBadGateway, "registry unavailable")
		return
	}
	if id != "" && h.cache != nil {
		h.cache.Set(ctx, key, id, h.ttl)
	}
	writeJSON(w, http.StatusOK, closestResult{RNBID: id})
}
