package normalize

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"strings"

	"rnb-admin/internal/model"
)

const (
	wkbLittleEndian = 1
	ewkbSRIDFlag    = 0x20000000
)

var ErrBadWKB = errors.New("bad wkb point")

// 文档注释：解码十六进制 WKB 点
// 背景：后端 geom 字段是 PostGIS 的 (E)WKB 十六进制文本，只承载单点；这里只取 X/Y，不校验几何类型码。
// 约束：1 字节字节序（1=小端，其他=大端）+ 4 字节类型码；类型码带 0x20000000 时跳过 4 字节 SRID；随后两个 float64。
// 返回：[纬度, 经度]；任何长度或十六进制错误返回 ErrBadWKB。
func DecodeWKBPoint(s string) (model.LatLng, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.LatLng{}, ErrBadWKB
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return model.LatLng{}, ErrBadWKB
	}
	if len(b) < 5 {
		return model.LatLng{}, ErrBadWKB
	}
	var order binary.ByteOrder = binary.BigEndian
	if b[0] == wkbLittleEndian {
		order = binary.LittleEndian
	}
	typ := order.Uint32(b[1:5])
	off := 5
	if typ&ewkbSRIDFlag != 0 {
		off += 4
	}
	if len(b) < off+16 {
		return model.LatLng{}, ErrBadWKB
	}
	x := math.Float64frombits(order.Uint64(b[off : off+8]))
	y := math.Float64frombits(order.Uint64(b[off+8 : off+16]))
	if math.IsNaN(x) || math.IsNaN(y) {
		return model.LatLng{}, ErrBadWKB
	}
	return model.LatLng{y, x}, nil
}

// DecodePointOrZero：解码失败时回退到 (0,0)，不向外传播错误
func DecodePointOrZero(s string) model.LatLng {
	p, err := DecodeWKBPoint(s)
	if err != nil {
		return model.LatLng{}
	}
	return p
}
