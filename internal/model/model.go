// 包 model：各模块共享的记录结构（展示条目、后端原始行、编辑补丁）
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// LatLng：纬度在前、经度在后的坐标对，与地图前端约定一致
// 约束：后端原始数据为 [lng, lat]，转换只在 normalize 中进行
type LatLng [2]float64

func (p LatLng) Lat() float64 { return p[0] }
func (p LatLng) Lng() float64 { return p[1] }

// Point：转换为 orb 坐标（X=经度，Y=纬度）
func (p LatLng) Point() orb.Point { return orb.Point{p[1], p[0]} }

// IsZero：两个分量均为 0 视为未定位
func (p LatLng) IsZero() bool { return p[0] == 0 && p[1] == 0 }

// 文档注释：展示用条目（一条已对账的建筑/地址记录）
// 背景：每次拉取目录时由原始记录重新派生，不在客户端持久化；编辑提交后以后端为准并重新派生。
// 约束：Coordinates 恒有值；Zone 非空且首尾闭合；RNBIDs 不为 nil，顺序即用户切换顺序，不去重。
type Item struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Score        string   `json:"score"`
	Surface      string   `json:"surface"`
	Usage        string   `json:"usage"`
	Gestionnaire string   `json:"gestionnaire"`
	RNBIDs       []string `json:"rnbIds"`
	Coordinates  LatLng   `json:"coordinates"`
	Zone         []LatLng `json:"zone"`
}

// HasRNBID：判断注册表标识是否已关联
func (it Item) HasRNBID(id string) bool {
	for _, v := range it.RNBIDs {
		if v == id {
			return true
		}
	}
	return false
}

// RawRecord：后端返回的松散类型行（数字可能是字符串，列表可能是单引号字符串）
type RawRecord map[string]any

// Value：读取原始字段，缺失返回 nil
func (r RawRecord) Value(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String：按前端展示习惯把字段转成文本
// 约束：nil 返回空串；数字去掉多余的尾零；其余类型回退到 JSON 文本
func (r RawRecord) String(key string) string {
	return Stringify(r.Value(key))
}

// Stringify：任意 JSON 值的文本表示
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}

// 文档注释：条目编辑补丁（PATCH 请求体）
// 背景：只提交被修改的字段；rnbIds 需要区分“未提交”和“提交为空/null”，因此单独记录是否出现。
type Patch struct {
	Name         *string
	Address      *string
	Surface      *string
	Usage        *string
	Gestionnaire *string
	RNBIDs       []string
	HasRNBIDs    bool
}

type patchWire struct {
	Name         *string         `json:"name,omitempty"`
	Address      *string         `json:"address,omitempty"`
	Surface      *string         `json:"surface,omitempty"`
	Usage        *string         `json:"usage,omitempty"`
	Gestionnaire *string         `json:"gestionnaire,omitempty"`
	RNBIDs       json.RawMessage `json:"rnbIds,omitempty"`
}

func (p Patch) MarshalJSON() ([]byte, error) {
	w := patchWire{Name: p.Name, Address: p.Address, Surface: p.Surface, Usage: p.Usage, Gestionnaire: p.Gestionnaire}
	if p.HasRNBIDs {
		ids := p.RNBIDs
		if ids == nil {
			ids = []string{}
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		w.RNBIDs = b
	}
	return json.Marshal(w)
}

// 文档注释：宽松解码编辑补丁
// 背景：前端表单与脚本会把 surface 等字段提交成数字；标量统一转成文本，由存储层决定是否写回数字。
// 约束：字段为 null 视为未提交；
// rnbIds 为数组时逐项转文本，null 元素丢弃；rnbIds 为 null 或非数组时记为空列表。
func (p *Patch) UnmarshalJSON(b []byte) error {
	var w map[string]json.RawMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = Patch{}
	for key, dst := range map[string]**string{
		"name":         &p.Name,
		"address":      &p.Address,
		"surface":      &p.Surface,
		"usage":        &p.Usage,
		"gestionnaire": &p.Gestionnaire,
	} {
		v, err := scalarText(w[key])
		if err != nil {
			return fmt.Errorf("patch: field %s: %w", key, err)
		}
		*dst = v
	}
	if raw, ok := w["rnbIds"]; ok {
		p.HasRNBIDs = true
		p.RNBIDs = idList(raw)
	}
	return nil
}

// scalarText：缺失或 null 返回 nil；字符串原样，数字/布尔转文本，对象/数组取 JSON 文本
func scalarText(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	s := Stringify(v)
	return &s, nil
}

// idList：数组元素逐项转文本，跳过 null；非数组返回空列表
func idList(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var vals []any
	if err := dec.Decode(&vals); err != nil {
		return []string{}
	}
	ids := make([]string, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		ids = append(ids, Stringify(v))
	}
	return ids
}

// Str：构造字符串指针的便捷函数
func Str(s string) *string { return &s }
