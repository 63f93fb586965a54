package middleware

import (
	"net/http"
	"sync"
	"time"

	"rnb-admin/internal/config"
	"rnb-admin/internal/logger"
)

// 文档注释：令牌桶限流（每秒）
// 背景：控制台批量点选或脚本误用时保护注册表代理与数据文件写入；按配置开关与速率。
// 约束：简化实现，不排队，超额直接 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：超出速率返回 429
func RateLimit(tb *TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// 文档注释：组装入口中间件
// 背景：CORS 总是生效且位于最外层，429/403 响应同样带跨域头；写白名单与限流按配置启用。
func Wrap(c config.Config, next http.Handler) http.Handler {
	h := next
	if c.WriteAllowlistEnabled {
		h = NewAllowlist(c.WriteAllowIPs, c.WriteAllowCIDRs, c.WriteAllowLocal, c.RealIPHeader).Wrap(h)
	}
	if c.RateLimitEnabled {
		h = RateLimit(NewTokenBucket(c.RateLimitQPS), h)
	}
	return CORS(c.CORSOrigin, h)
}
