package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"rnb-admin/internal/items"
	"rnb-admin/internal/logger"
	"rnb-admin/internal/metrics"
	"rnb-admin/internal/model"
)

const maxPatchBody = 1 << 20

type itemsHandler struct {
	store  *items.Store
	origin string
}

func (h *itemsHandler) count(method string, status int) {
	metrics.ItemsRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// list：返回数据文件中的原始记录（最多 ITEMS_LIMIT 条）
func (h *itemsHandler) list(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w, h.origin)
	recs, err := h.store.List(r.Context())
	if err != nil {
		logger.L().Error("items_load_error", "path", h.store.Path(), "err", err)
		h.count(r.Method, http.StatusInternalServerError)
		writeMessage(w, http.StatusInternalServerError, "unable to read items")
		return
	}
	if recs == nil {
		recs = []model.RawRecord{}
	}
	h.count(r.Method, http.StatusOK)
	writeJSON(w, http.StatusOK, recs)
}

func (h *itemsHandler) options(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w, h.origin)
	h.count(r.Method, http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

// 文档注释：单条编辑
// 约束：请求体必须是 JSON 对象，否则 400；找不到条目 404；成功时原样回显请求体。
func (h *itemsHandler) update(w http.ResponseWriter, r *http.Request) {
	corsHeaders(w, h.origin)
	t0 := time.Now()
	id := r.PathValue("id")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBody))
	if err != nil || !isJSONObject(body) {
		h.count(r.Method, http.StatusBadRequest)
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	var p model.Patch
	if err := json.Unmarshal(body, &p); err != nil {
		logger.L().Debug("items_patch_decode_error", "id", id, "err", err)
		h.count(r.Method, http.StatusBadRequest)
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.store.Update(r.Context(), id, p); err != nil {
		if errors.Is(err, items.ErrNotFound) {
			h.count(r.Method, http.StatusNotFound)
			writeMessage(w, http.StatusNotFound, "item not found")
			return
		}
		logger.L().Error("items_update_error", "id", id, "err", err)
		h.count(r.Method, http.StatusInternalServerError)
		writeMessage(w, http.StatusInternalServerError, "unable to save item")
		return
	}
	metrics.ItemsUpdateDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	logger.L().Info("items_update_ok", "id", id)
	h.count(r.Method, http.StatusOK)
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bytes.TrimSpace(body))
}

// isJSONObject：合法 JSON 且顶层为对象
func isJSONObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return false
	}
	return json.Valid(b)
}
