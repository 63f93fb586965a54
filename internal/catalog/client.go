// 包 catalog：条目目录客户端（拉取全部条目并规范化、提交单条编辑）
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rnb-admin/internal/config"
	"rnb-admin/internal/logger"
	"rnb-admin/internal/metrics"
	"rnb-admin/internal/model"
	"rnb-admin/internal/normalize"
)

// 文档注释：目录客户端
// 背景：API 地址由配置显式注入，不在代码中按构建环境判断。
// 约束：单次请求，不重试、不分页；超时由 http.Client 决定。
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

// FromConfig：按进程配置构造客户端
func FromConfig(c config.Config) *Client {
	return NewClient(c.APIURL, &http.Client{Timeout: c.HTTPTimeout})
}

// 文档注释：拉取目录
// 返回：按后端顺序逐条规范化后的条目；任何失败返回 *LoadError（errors.Is ErrLoadFailed）。
func (c *Client) FetchItems(ctx context.Context) ([]model.Item, error) {
	raws, err := c.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return normalize.NormalizeAll(raws), nil
}

// FetchRaw：拉取未规范化的原始记录
func (c *Client) FetchRaw(ctx context.Context) ([]model.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/items", nil)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("fetch", "error").Inc()
		logger.L().Error("catalog_fetch_error", "err", err)
		return nil, &LoadError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.CatalogRequestsTotal.WithLabelValues("fetch", strconv.Itoa(resp.StatusCode)).Inc()
		logger.L().Warn("catalog_fetch_status", "status", resp.StatusCode)
		return nil, &LoadError{Status: resp.StatusCode}
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raws []model.RawRecord
	if err := dec.Decode(&raws); err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("fetch", "decode_error").Inc()
		logger.L().Error("catalog_decode_error", "err", err)
		return nil, &LoadError{Err: err}
	}
	metrics.CatalogRequestsTotal.WithLabelValues("fetch", "ok").Inc()
	logger.L().Debug("catalog_fetch_ok", "count", len(raws))
	return raws, nil
}

// 文档注释：提交单条编辑
// 背景：只发送被修改的字段；rnbIds 出现即整体替换反提案列表。
// 返回：后端回显的补丁；404 返回 *NotFoundError，其余失败返回 *SaveError。
func (c *Client) UpdateItem(ctx context.Context, id string, p model.Patch) (model.Patch, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return model.Patch{}, &SaveError{ID: id, Err: err}
	}
	u := c.base + "/items/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return model.Patch{}, &SaveError{ID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("update", "error").Inc()
		logger.L().Error("catalog_update_error", "id", id, "err", err)
		return model.Patch{}, &SaveError{ID: id, Err: err}
	}
	defer resp.Body.Close()
	metrics.CatalogRequestsTotal.WithLabelValues("update", strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode == http.StatusNotFound {
		return model.Patch{}, &NotFoundError{ID: id}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readMessage(resp.Body)
		logger.L().Warn("catalog_update_status", "id", id, "status", resp.StatusCode, "message", msg)
		return model.Patch{}, &SaveError{ID: id, Status: resp.StatusCode, Message: msg}
	}
	var echo model.Patch
	if err := json.NewDecoder(resp.Body).Decode(&echo); err != nil {
		return model.Patch{}, &SaveError{ID: id, Err: err}
	}
	return echo, nil
}

// readMessage：读取 {"message": "..."} 错误体，失败时返回原文片段
func readMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var m struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &m) == nil && m.Message != "" {
		return m.Message
	}
	return strings.TrimSpace(string(b))
}
