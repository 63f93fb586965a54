// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"rnb-admin/internal/config"
	"rnb-admin/internal/items"
	"rnb-admin/internal/mapview"
	"rnb-admin/internal/middleware"
	"rnb-admin/internal/rnb"
)

// Deps：路由依赖；Cache 为空时就近查询不走缓存
type Deps struct {
	Config   config.Config
	Items    *items.Store
	Registry mapview.Lookup
	Cache    Cache
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	h := &itemsHandler{store: d.Items, origin: d.Config.CORSOrigin}
	mux.HandleFunc("GET /items", h.list)
	mux.HandleFunc("OPTIONS /items", h.options)
	mux.HandleFunc("OPTIONS /items/{id}", h.options)
	mux.HandleFunc("PATCH /items/{id}", h.update)

	rh := &registryHandler{lookup: d.Registry, cache: d.Cache, radius: d.Config.ClosestRadius, ttl: d.Config.RNBCacheTTL}
	mux.HandleFunc("GET /registry/closest", rh.closest)

	tiles := strings.TrimRight(d.Config.RNBAPIBase, "/") + rnb.TilePath
	mux.HandleFunc("GET /map/layers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mapview.Layers(tiles, d.Config.ClosestRadius))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message{Message: msg})
}

// corsHeaders：条目接口响应自带跨域头，挂在任何前缀下都成立
func corsHeaders(w http.ResponseWriter, origin string) {
	middleware.SetCORS(w.Header(), origin)
}
