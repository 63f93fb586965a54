package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ItemsRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rnbadmin_items_requests_total",
		Help: "Total number of /api/items requests by method and status",
	}, []string{"method", "status"})
	ItemsUpdateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rnbadmin_items_update_duration_ms",
		Help:    "Item PATCH duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	ClosestCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rnbadmin_closest_cache_hits_total",
		Help: "Total redis cache hits for closest-building lookups",
	})
	ClosestCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rnbadmin_closest_cache_misses_total",
		Help: "Total redis cache misses for closest-building lookups",
	})
	RNBRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rnbadmin_rnb_requests_total",
		Help: "Total RNB registry REST requests",
	}, []string{"endpoint"})
	RNBFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rnbadmin_rnb_fail_total",
		Help: "Total RNB registry REST failures",
	}, []string{"endpoint"})
	RNBDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rnbadmin_rnb_duration_ms",
		Help:    "RNB registry REST call duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	}, []string{"endpoint"})
	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rnbadmin_catalog_requests_total",
		Help: "Total catalog client requests by operation and outcome",
	}, []string{"op", "status"})
	MapClicksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rnbadmin_map_clicks_total",
		Help: "Map clicks by outcome (debounced, toggled, lookup_failed, empty)",
	}, []string{"outcome"})
	ImportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rnbadmin_import_rows_total",
		Help: "Reconciled rows processed by the import job",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(ItemsRequestsTotal)
	prometheus.MustRegister(ItemsUpdateDurationMs)
	prometheus.MustRegister(ClosestCacheHitsTotal)
	prometheus.MustRegister(ClosestCacheMissesTotal)
	prometheus.MustRegister(RNBRequestsTotal)
	prometheus.MustRegister(RNBFailTotal)
	prometheus.MustRegister(RNBDurationMs)
	prometheus.MustRegister(CatalogRequestsTotal)
	prometheus.MustRegister(MapClicksTotal)
	prometheus.MustRegister(ImportRowsTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
