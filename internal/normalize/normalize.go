// 包 normalize：把后端原始记录转换为展示条目的纯函数集合
// 约束：同样的输入恒得到同样的输出，测试夹具与刷新重算都依赖这一点；解析失败一律回退为空列表或零坐标。
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"rnb-admin/internal/model"

	"golang.org/x/text/cases"
)

// 原始字段名
const (
	FieldID               = "Code_bat_ter"
	FieldName             = "Libelle_bat_ter"
	FieldStreet           = "Adresse"
	FieldPostcode         = "Code_Postal"
	FieldCity             = "Ville"
	FieldScore            = "Completude"
	FieldSurface          = "Surface_de_plancher"
	FieldUsage            = "Usage_detaille_du_bien"
	FieldGestionnaire     = "Gestionnaire"
	FieldRNBIDs           = "rnb_ids"
	FieldCounterRNBIDs    = "contre_proposition_rnb_ids"
	FieldCoordinates      = "coordinates"
	FieldZone             = "zone"
	FieldGeometry         = "geometry"
	FieldReconciledRNBIDs = "cerema_cstb_rnb_ids"
)

// ZoneHalfWidth：默认包围方块的半宽（度）
const ZoneHalfWidth = 0.00035

// 文档注释：解析单引号风格的标识列表
// 背景：对账表把 Python 风格的列表直接存成文本，例如 "['RNB1', 'RNB2']"；把单引号替换为双引号后按 JSON 解码。
// 约束：任何解析失败返回空列表，不向外抛错；null 同样视为空。
func ParseIDList(s string) []string {
	cleaned := strings.ReplaceAll(s, "'", `"`)
	var out []string
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// ParseIDListValue：兼容已解码的数组与字符串两种输入
func ParseIDListValue(v any) []string {
	switch t := v.(type) {
	case string:
		return ParseIDList(t)
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return []string{}
			}
			out = append(out, s)
		}
		return out
	}
	return []string{}
}

// ResolveRNBIDs：反提案列表非空时优先，否则使用原始匹配列表
func ResolveRNBIDs(counter, original []string) []string {
	if len(counter) > 0 {
		return counter
	}
	if original == nil {
		return []string{}
	}
	return original
}

// 文档注释：拼接地址
// 背景：原始街道字段有时已包含邮编或城市，直接拼接会出现重复；邮编/城市若已作为子串出现在前面某一段中则跳过。
// 约束：比较不区分大小写；各段先去空白，空段丢弃；以单个空格连接。
func AssembleAddress(street, postcode, city string) string {
	fold := cases.Fold()
	var parts, folded []string
	add := func(seg string, dedupe bool) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return
		}
		f := fold.String(seg)
		if dedupe {
			for _, prev := range folded {
				if strings.Contains(prev, f) {
					return
				}
			}
		}
		parts = append(parts, seg)
		folded = append(folded, f)
	}
	add(street, false)
	add(postcode, true)
	add(city, true)
	return strings.Join(parts, " ")
}

// toFloat：数字或数字字符串转 float64，失败返回 ok=false
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// lngLatPair：把 [lng, lat] 转成 [lat, lng]；无法转换的分量按 0 处理
func lngLatPair(v any) (model.LatLng, bool) {
	var arr []any
	switch t := v.(type) {
	case []any:
		arr = t
	case []float64:
		for _, f := range t {
			arr = append(arr, f)
		}
	default:
		return model.LatLng{}, false
	}
	if len(arr) < 2 {
		return model.LatLng{}, false
	}
	lng, _ := toFloat(arr[0])
	lat, _ := toFloat(arr[1])
	return model.LatLng{lat, lng}, true
}

// 文档注释：坐标解析（显式坐标 → WKB 几何 → 零点）
// 背景：部分记录带有 [lng, lat] 显式坐标，其余仅有 PostGIS 几何；两者都缺失时以 (0,0) 占位，保证条目总能渲染。
// 约束：显式坐标两个分量在数值转换后都为 0 时视为缺失。
func ResolveCoordinates(explicit any, geometryHex string) model.LatLng {
	if p, ok := lngLatPair(explicit); ok && !p.IsZero() {
		return p
	}
	return DecodePointOrZero(geometryHex)
}

// 文档注释：区域多边形解析
// 背景：后端给出 [[lng,lat],...] 时逐点转换并原样使用；否则以坐标为中心合成闭合方块。
// 约束：合成顺序固定为 左下、右下、右上、左上、左下。
func ResolveZone(explicit any, center model.LatLng) []model.LatLng {
	if arr, ok := explicit.([]any); ok && len(arr) > 0 {
		out := make([]model.LatLng, 0, len(arr))
		for _, e := range arr {
			p, _ := lngLatPair(e)
			out = append(out, p)
		}
		return out
	}
	if pts, ok := explicit.([]model.LatLng); ok && len(pts) > 0 {
		return append([]model.LatLng{}, pts...)
	}
	return SquareZone(center, ZoneHalfWidth)
}

// SquareZone：以 c 为中心、半宽 d 的闭合方块
func SquareZone(c model.LatLng, d float64) []model.LatLng {
	lat, lng := c.Lat(), c.Lng()
	return []model.LatLng{
		{lat - d, lng - d},
		{lat - d, lng + d},
		{lat + d, lng + d},
		{lat + d, lng - d},
		{lat - d, lng - d},
	}
}

// 文档注释：原始记录 → 展示条目
// 背景：集中前端所需的全部归一化（标识列表、地址、坐标、区域）；目录拉取后逐条调用。
func Normalize(raw model.RawRecord) model.Item {
	original := ParseIDListValue(raw.Value(FieldRNBIDs))
	counter := ParseIDListValue(raw.Value(FieldCounterRNBIDs))
	coords := ResolveCoordinates(raw.Value(FieldCoordinates), raw.String(FieldGeometry))
	return model.Item{
		ID:           raw.String(FieldID),
		Name:         raw.String(FieldName),
		Address:      AssembleAddress(raw.String(FieldStreet), raw.String(FieldPostcode), raw.String(FieldCity)),
		Score:        raw.String(FieldScore),
		Surface:      raw.String(FieldSurface),
		Usage:        raw.String(FieldUsage),
		Gestionnaire: raw.String(FieldGestionnaire),
		RNBIDs:       ResolveRNBIDs(counter, original),
		Coordinates:  coords,
		Zone:         ResolveZone(raw.Value(FieldZone), coords),
	}
}

// NormalizeAll：保持后端顺序
func NormalizeAll(raws []model.RawRecord) []model.Item {
	out := make([]model.Item, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}
