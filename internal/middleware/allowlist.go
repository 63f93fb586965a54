package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"rnb-admin/internal/logger"
)

// 文档注释：写操作来源白名单（单 IP + CIDR）
// 背景：编辑接口会改写数据文件；部署在内网之外时只允许指定工作站提交，读取接口保持开放。
// 约束：只拦截写方法，GET/HEAD/OPTIONS 直接放行；来源 IP 默认取 RemoteAddr，
// 配置 RealIPHeader 时取该头的首个有效 IP。
type Allowlist struct {
	ips          map[netip.Addr]struct{}
	prefixes     []netip.Prefix
	realIPHeader string
}

// NewAllowlist：无法解析的条目被忽略并记录日志；allowLocal 加入 127.0.0.1 与 ::1
func NewAllowlist(ips, cidrs []string, allowLocal bool, realIPHeader string) *Allowlist {
	a := &Allowlist{ips: map[netip.Addr]struct{}{}, realIPHeader: strings.TrimSpace(realIPHeader)}
	for _, s := range ips {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		ip, err := netip.ParseAddr(s)
		if err != nil {
			logger.L().Warn("allowlist_ip_invalid", "value", s)
			continue
		}
		a.ips[ip.Unmap()] = struct{}{}
	}
	for _, s := range cidrs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p, err := netip.ParsePrefix(s)
		if err != nil {
			logger.L().Warn("allowlist_cidr_invalid", "value", s)
			continue
		}
		a.prefixes = append(a.prefixes, p.Masked())
	}
	if allowLocal {
		a.ips[netip.MustParseAddr("127.0.0.1")] = struct{}{}
		a.ips[netip.IPv6Loopback()] = struct{}{}
	}
	return a
}

// Allowed：判断来源是否在允许集合
func (a *Allowlist) Allowed(ip netip.Addr) bool {
	ip = ip.Unmap()
	if _, ok := a.ips[ip]; ok {
		return true
	}
	for _, p := range a.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP：解析请求来源 IP
func (a *Allowlist) clientIP(r *http.Request) (netip.Addr, bool) {
	if a.realIPHeader != "" {
		if raw := r.Header.Get(a.realIPHeader); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
				return ip, true
			}
		}
	}
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr(), true
	}
	ip, err := netip.ParseAddr(r.RemoteAddr)
	return ip, err == nil
}

func isWrite(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Wrap：来源不在白名单的写请求返回 403
func (a *Allowlist) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isWrite(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		ip, ok := a.clientIP(r)
		if !ok || !a.Allowed(ip) {
			logger.L().Debug("write_blocked", "remote", r.RemoteAddr, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"forbidden"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
