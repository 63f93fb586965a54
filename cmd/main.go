// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rnb-admin/internal/api"
	"rnb-admin/internal/config"
	"rnb-admin/internal/items"
	"rnb-admin/internal/logger"
	"rnb-admin/internal/metrics"
	"rnb-admin/internal/middleware"
	"rnb-admin/internal/rnb"
	"rnb-admin/internal/utils"
)

func main() {
	cfg := config.Load()
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase, "env", cfg.Env)
	l.Debug("config_rnb", "client_base", cfg.RNBAPIBase, "upstream", cfg.RNBUpstream)

	if _, err := os.Stat(cfg.DataFile); err != nil {
		l.Error("data_file_missing", "path", cfg.DataFile, "err", err)
	} else {
		l.Info("data_file_ok", "path", cfg.DataFile, "limit", cfg.ItemsLimit)
	}
	st := items.NewStore(cfg.DataFile, cfg.ItemsLimit)

	var cache api.Cache
	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled", "fallback", "memory")
		cache = api.NewMemoryCache(api.DefaultMemoryCacheSize)
	} else {
		cache = api.NewRedisCache(rc)
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		defer rc.Close()
	}

	// 服务端查询直连上游；开发环境的 /rnb 代理只服务浏览器
	registry := rnb.NewClient(cfg.RNBUpstream, &http.Client{Timeout: cfg.HTTPTimeout})
	apiMux := api.BuildRoutes(api.Deps{Config: cfg, Items: st, Registry: registry, Cache: cache})

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	if cfg.IsDev() {
		proxy, err := api.NewDevProxy(config.DevRNBProxyPath, cfg.RNBUpstream)
		if err != nil {
			l.Error("rnb_proxy_error", "err", err)
			os.Exit(1)
		}
		mux.Handle(config.DevRNBProxyPath+"/", proxy)
		l.Info("rnb_proxy_enabled", "path", config.DevRNBProxyPath, "upstream", cfg.RNBUpstream)
	}

	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))
	// NOTE: 向前端暴露 API 与注册表地址，避免按构建环境硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__RNB_API_BASE__='" + cfg.RNBAPIBase + "'\n"))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(cfg, handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if cfg.TLSEnable {
		if e := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "rnb-admin.local"); e != nil {
			l.Error("tls_cert_error", "err", e)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}
