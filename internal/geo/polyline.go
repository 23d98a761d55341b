package geo

import "strings"

// Encoded polyline format (1e-5 precision, lat then lon deltas), the same
// representation directions providers return for route shapes.

// EncodePolyline encodes pts into the polyline wire format.
// Encoding the same point sequence always yields the same string.
func EncodePolyline(pts []Point) string {
	var sb strings.Builder
	var prevLat, prevLon int64
	for _, p := range pts {
		lat := int64(round5(p.Lat))
		lon := int64(round5(p.Lon))
		encodeSigned(&sb, lat-prevLat)
		encodeSigned(&sb, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return sb.String()
}

// DecodePolyline decodes a polyline string back into points.
// Malformed trailing chunks are dropped rather than reported; the format
// carries no checksum.
func DecodePolyline(s string) []Point {
	var pts []Point
	var lat, lon int64
	i := 0
	for i < len(s) {
		dLat, n := decodeSigned(s[i:])
		if n == 0 {
			break
		}
		i += n
		dLon, n := decodeSigned(s[i:])
		if n == 0 {
			break
		}
		i += n
		lat += dLat
		lon += dLon
		pts = append(pts, Point{Lat: float64(lat) / 1e5, Lon: float64(lon) / 1e5})
	}
	return pts
}

func round5(v float64) float64 {
	scaled := v * 1e5
	if scaled < 0 {
		return float64(int64(scaled - 0.5))
	}
	return float64(int64(scaled + 0.5))
}

func encodeSigned(sb *strings.Builder, v int64) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}

func decodeSigned(s string) (int64, int) {
	var u int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - 63
		if b < 0 {
			return 0, 0
		}
		u |= (b & 0x1f) << shift
		if b < 0x20 {
			v := u >> 1
			if u&1 != 0 {
				v = ^v
			}
			return v, i + 1
		}
		shift += 5
	}
	return 0, 0
}
