package rnb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rnb-admin/internal/logger"
	"rnb-admin/internal/metrics"
	"rnb-admin/internal/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// noBuildingError：就近查询无结果；Empty() 供地图层区分“无结果”与“查询失败”
type noBuildingError struct{}

func (noBuildingError) Error() string { return "rnb: no building found" }
func (noBuildingError) Empty() bool   { return true }

var (
	// ErrNoBuilding：就近查询没有返回任何建筑
	ErrNoBuilding error = noBuildingError{}
	// ErrMissingID：调用方未提供标识
	ErrMissingID = errors.New("rnb: missing building id")
)

// StatusError：注册表返回非 2xx
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rnb %s: unexpected status %d", e.Endpoint, e.Status)
}

// 文档注释：RNB 就近查询响应
// 背景：只解析 results[].rnb_id；其余字段（距离、地址）前端不使用。
type closestResponse struct {
	Results []struct {
		RNBID string `json:"rnb_id"`
	} `json:"results"`
}

// AddressRef：建筑关联的 BAN 地址，仅保留互操作键
type AddressRef struct {
	ID string `json:"id"`
}

// 文档注释：RNB 建筑详情
// 背景：对齐 /api/alpha/buildings/{id}/ 的返回字段，用于导入任务落库（状态、代表点、轮廓、地址键）。
// 约束：point 为 GeoJSON Point，shape 一般为 Polygon，也可能是 Point（无轮廓的建筑）。
type Building struct {
	RNBID     string            `json:"rnb_id"`
	Status    string            `json:"status"`
	IsActive  bool              `json:"is_active"`
	Point     *geojson.Geometry `json:"point"`
	Shape     *geojson.Geometry `json:"shape"`
	Addresses []AddressRef      `json:"addresses"`
}

// Location：代表点（纬度在前）；缺失时返回 ok=false
func (b Building) Location() (model.LatLng, bool) {
	if b.Point == nil {
		return model.LatLng{}, false
	}
	p, ok := b.Point.Geometry().(orb.Point)
	if !ok {
		return model.LatLng{}, false
	}
	return model.LatLng{p.Lat(), p.Lon()}, true
}

// Outline：轮廓外环（纬度在前）；多面取第一个面，非面几何返回空
func (b Building) Outline() []model.LatLng {
	if b.Shape == nil {
		return nil
	}
	var ring orb.Ring
	switch g := b.Shape.Geometry().(type) {
	case orb.Polygon:
		if len(g) > 0 {
			ring = g[0]
		}
	case orb.MultiPolygon:
		if len(g) > 0 && len(g[0]) > 0 {
			ring = g[0][0]
		}
	}
	out := make([]model.LatLng, 0, len(ring))
	for _, p := range ring {
		out = append(out, model.LatLng{p.Lat(), p.Lon()})
	}
	return out
}

// AddressKeys：地址互操作键列表
func (b Building) AddressKeys() []string {
	out := make([]string, 0, len(b.Addresses))
	for _, a := range b.Addresses {
		out = append(out, a.ID)
	}
	return out
}

// 文档注释：RNB 注册表客户端
// 背景：地图点选与导入任务共用；根地址由配置注入（开发环境为本地代理）。
// 约束：不做重试；超时由注入的 http.Client 决定，为空时使用 5s 超时的默认客户端。
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// Base：注册表根地址
func (c *Client) Base() string { return c.base }

// TilePath：矢量瓦片模板路径（相对注册表根地址）
const TilePath = "/api/alpha/tiles/shapes/{x}/{y}/{z}.pbf"

// TileURL：矢量瓦片模板地址，前端 vectorGrid 使用
func (c *Client) TileURL() string { return c.base + TilePath }

// 文档注释：就近建筑查询
// 为什么：地图点击时以点击位置在小半径内找最近建筑，返回其 RNB 标识用于切换关联。
// 参数：lat/lng 为 WGS84；radius 单位米，<=0 时使用 5。
// 返回：第一条结果的标识；无结果返回 ErrNoBuilding；HTTP 非 2xx 返回 *StatusError。
func (c *Client) Closest(ctx context.Context, lat, lng float64, radius int) (string, error) {
	if radius <= 0 {
		radius = 5
	}
	q := url.Values{}
	q.Set("point", formatFloat(lat)+","+formatFloat(lng))
	q.Set("radius", strconv.Itoa(radius))
	u := c.base + "/api/alpha/buildings/closest/?" + q.Encode()
	var r closestResponse
	if err := c.getJSON(ctx, "closest", u, &r); err != nil {
		return "", err
	}
	if len(r.Results) == 0 || r.Results[0].RNBID == "" {
		return "", ErrNoBuilding
	}
	return r.Results[0].RNBID, nil
}

// 文档注释：按标识读取建筑详情
// 背景：导入任务对每个对账标识拉取一次详情并落库。
func (c *Client) GetBuilding(ctx context.Context, id string) (*Building, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}
	u := c.base + "/api/alpha/buildings/" + url.PathEscape(id) + "/"
	var b Building
	if err := c.getJSON(ctx, "building", u, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	t0 := time.Now()
	metrics.RNBRequestsTotal.WithLabelValues(endpoint).Inc()
	logger.L().Debug("rnb_req", "endpoint", endpoint, "url", u)
	resp, err := c.http.Do(req)
	if err != nil {
		logger.L().Error("rnb_http_error", "endpoint", endpoint, "err", err)
		metrics.RNBFailTotal.WithLabelValues(endpoint).Inc()
		return err
	}
	defer resp.Body.Close()
	dur := time.Since(t0).Milliseconds()
	metrics.RNBDurationMs.WithLabelValues(endpoint).Observe(float64(dur))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Warn("rnb_http_status", "endpoint", endpoint, "status", resp.StatusCode, "duration_ms", dur)
		metrics.RNBFailTotal.WithLabelValues(endpoint).Inc()
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.L().Error("rnb_decode_error", "endpoint", endpoint, "err", err)
		metrics.RNBFailTotal.WithLabelValues(endpoint).Inc()
		return err
	}
	logger.L().Debug("rnb_resp", "endpoint", endpoint, "status", resp.StatusCode, "duration_ms", dur)
	return nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
