package geo

import "math"

const (
	// TileSize is the side length of a map tile in pixels. World pixel
	// space at zoom z spans TileSize * 2^z pixels in each dimension.
	TileSize = 256

	// maxMercatorLat is the latitude at which the square Web Mercator
	// projection cuts off. Latitudes beyond it are clamped.
	maxMercatorLat = 85.05112878
)

// Projector converts between geographic coordinates and pixel coordinates
// at whatever zoom level the implementation is currently operating at.
// A host map satisfies this interface for its current zoom.
type Projector interface {
	PixelFromGeo(p Point) Pixel
	GeoFromPixel(px Pixel) Point
}

// MercatorProjection implements the spherical Web Mercator projection used
// by slippy tile maps.
type MercatorProjection struct{}

// PixelFromGeo converts a geographic point to world pixel coordinates at
// the given zoom level.
func (MercatorProjection) PixelFromGeo(p Point, zoom int) Pixel {
	lat := math.Max(-maxMercatorLat, math.Min(maxMercatorLat, p.Lat))
	sin := math.Sin(lat * math.Pi / 180)

	x := (p.Lon + 180) / 360
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi

	scale := float64(int(1) << uint(zoom))
	return Pixel{
		X: x * scale * TileSize,
		Y: y * scale * TileSize,
	}
}

// GeoFromPixel converts world pixel coordinates at the given zoom level
// back to a geographic point.
func (MercatorProjection) GeoFromPixel(px Pixel, zoom int) Point {
	scale := float64(int(1) << uint(zoom))

	x := px.X / (scale * TileSize)
	y := px.Y / (scale * TileSize)

	lon := x*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi

	return Point{Lat: lat, Lon: lon}
}
