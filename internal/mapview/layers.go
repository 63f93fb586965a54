package mapview

// PathStyle：矢量要素样式（对应 Leaflet PathOptions）
type PathStyle struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

var (
	// DefaultTileStyle：未选中建筑轮廓
	DefaultTileStyle = PathStyle{FillColor: "#CBD5E1", Color: "#94A3B8", Weight: 0.6, FillOpacity: 0.18}
	// SelectedTileStyle：已关联到当前条目的建筑轮廓
	SelectedTileStyle = PathStyle{FillColor: "#EA580C", Color: "#C2410C", Weight: 1.6, FillOpacity: 0.65}
)

// TileLayer：底图或叠加图层描述
type TileLayer struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Attribution string  `json:"attribution"`
	MaxZoom     int     `json:"maxZoom,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	Default     bool    `json:"default,omitempty"`
}

// BaseLayers：可切换的底图，第一项默认选中
var BaseLayers = []TileLayer{
	{Name: "Plan (IGN)", URL: "https://{s}.tile.openstreetmap.fr/osmfr/{z}/{x}/{y}.png", Attribution: "© IGN / © OSM contributors", MaxZoom: 19, Default: true},
	{Name: "Plan (OSM)", URL: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", Attribution: "© OpenStreetMap contributors", MaxZoom: 19},
	{Name: "Satellite", URL: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}", Attribution: "Tiles © Esri — Source: Esri, i-cubed, USDA, USGS, AeroGRID, IGN, and the GIS User Community", MaxZoom: 19},
}

// OverlayLayers：可选叠加图层
var OverlayLayers = []TileLayer{
	{Name: "Cadastre", URL: "https://{s}.tile.openstreetmap.fr/osmfr/{z}/{x}/{y}.png", Attribution: "© Cadastre / © OSM contributors", Opacity: 0.55},
	{Name: "Adresses BAN", URL: "https://{s}.tile.openstreetmap.de/tiles/osmde/{z}/{x}/{y}.png", Attribution: "© BAN · © OSM contributors", Opacity: 0.55},
}

// 文档注释：前端地图配置
// 背景：瓦片地址与注册表根地址由后端统一下发，前端不再按构建环境硬编码。
type LayerConfig struct {
	Base          []TileLayer `json:"base"`
	Overlays      []TileLayer `json:"overlays"`
	RNBTiles      string      `json:"rnbTiles"`
	DefaultStyle  PathStyle   `json:"defaultStyle"`
	SelectedStyle PathStyle   `json:"selectedStyle"`
	DebounceMs    int64       `json:"debounceMs"`
	Radius        int         `json:"radius"`
}

// Layers：组装地图配置，rnbTiles 为注册表矢量瓦片模板
func Layers(rnbTiles string, radius int) LayerConfig {
	return LayerConfig{
		Base:          BaseLayers,
		Overlays:      OverlayLayers,
		RNBTiles:      rnbTiles,
		DefaultStyle:  DefaultTileStyle,
		SelectedStyle: SelectedTileStyle,
		DebounceMs:    ClickDebounce.Milliseconds(),
		Radius:        radius,
	}
}
