package mapview

import (
	"rnb-admin/internal/model"

	"github.com/paulmach/orb"
)

// DefaultCenter：没有任何条目可定位时的地图中心（巴黎）
var DefaultCenter = model.LatLng{48.8566, 2.3522}

// Marker：条目点标记
type Marker struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Address   string       `json:"address"`
	Center    model.LatLng `json:"center"`
	Radius    int          `json:"radius"`
	Color     string       `json:"color"`
	FillColor string       `json:"fillColor"`
	Active    bool         `json:"active"`
}

// 文档注释：生成全部条目的点标记
// 约束：当前条目半径 12、蓝色；其余半径 8、紫色；顺序与输入一致。
func Markers(items []model.Item, activeID string) []Marker {
	out := make([]Marker, 0, len(items))
	for _, it := range items {
		m := Marker{ID: it.ID, Name: it.Name, Address: it.Address, Center: it.Coordinates, Radius: 8, Color: "#7C3AED", FillColor: "#C084FC"}
		if it.ID == activeID {
			m.Radius = 12
			m.Color = "#1D4ED8"
			m.FillColor = "#1D4ED8"
			m.Active = true
		}
		out = append(out, m)
	}
	return out
}

// Bounds：视口范围（西南、东北两角，纬度在前）
type Bounds struct {
	SouthWest model.LatLng `json:"southWest"`
	NorthEast model.LatLng `json:"northEast"`
}

// focusPoints：条目的取景点集，有区域用区域，否则用单点
func focusPoints(it model.Item) []model.LatLng {
	if len(it.Zone) > 0 {
		return it.Zone
	}
	return []model.LatLng{it.Coordinates}
}

// BoundsOf：点集的外包矩形；空点集返回 ok=false
func BoundsOf(pts []model.LatLng) (Bounds, bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	mp := make(orb.MultiPoint, 0, len(pts))
	for _, p := range pts {
		mp = append(mp, p.Point())
	}
	b := mp.Bound()
	return Bounds{
		SouthWest: model.LatLng{b.Min.Lat(), b.Min.Lon()},
		NorthEast: model.LatLng{b.Max.Lat(), b.Max.Lon()},
	}, true
}

// 文档注释：总览地图取景
// 背景：合并所有条目的区域（或单点）求外包；没有条目时回退默认中心与较小缩放。
// 返回：范围、初始中心、初始缩放级别。
func FitAll(items []model.Item) (Bounds, model.LatLng, int) {
	var pts []model.LatLng
	for _, it := range items {
		pts = append(pts, focusPoints(it)...)
	}
	b, ok := BoundsOf(pts)
	if !ok {
		return Bounds{SouthWest: DefaultCenter, NorthEast: DefaultCenter}, DefaultCenter, 6
	}
	return b, pts[0], 11
}

func samePoints(a, b []model.LatLng) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
