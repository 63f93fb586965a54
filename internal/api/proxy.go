package api

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"rnb-admin/internal/logger"
)

// 文档注释：开发环境注册表反向代理
// 背景：前端开发服务器与注册表不同源，浏览器直接请求会被跨域拦截；经本服务 prefix 路径转发到上游。
// 约束：去掉 prefix 后原样转发路径与查询串，Host 改写为上游主机。
func NewDevProxy(prefix, upstream string) (http.Handler, error) {
	target, err := url.Parse(strings.TrimRight(upstream, "/"))
	if err != nil {
		return nil, err
	}
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.L().Warn("rnb_proxy_error", "path", r.URL.Path, "err", err)
			writeMessage(w, http.StatusBadGateway, "registry unavailable")
		},
	}
	return http.StripPrefix(strings.TrimRight(prefix, "/"), rp), nil
}
