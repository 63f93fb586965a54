package middleware

import "net/http"

const (
	corsMethods = "GET,PATCH,OPTIONS"
	corsHeaders = "Content-Type"
)

// SetCORS：写入跨域响应头
func SetCORS(h http.Header, origin string) {
	if origin == "" {
		origin = "*"
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", corsMethods)
	h.Set("Access-Control-Allow-Headers", corsHeaders)
}

// 文档注释：CORS 中间件
// 约束：所有响应（含错误）都带跨域头；预检请求由路由自行返回 204，这里不拦截。
func CORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w.Header(), origin)
		next.ServeHTTP(w, r)
	})
}
