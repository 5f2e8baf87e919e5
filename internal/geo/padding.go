package geo

// PadBounds grows a geographic bounding box by a margin given in pixels.
// The southwest and northeast corners are projected to pixel space, offset
// by the padding, and projected back. Because the Mercator projection is
// not uniform in latitude, the resulting box is not symmetric in degrees;
// callers must treat it as opaque.
func PadBounds(pr Projector, b BoundingBox, padding float64) BoundingBox {
	// Northeast corner has the smallest Y in pixel space (Y grows south).
	ne := pr.PixelFromGeo(Point{Lat: b.MaxLat, Lon: b.MaxLon})
	sw := pr.PixelFromGeo(Point{Lat: b.MinLat, Lon: b.MinLon})

	ne.X += padding
	ne.Y -= padding
	sw.X -= padding
	sw.Y += padding

	top := pr.GeoFromPixel(ne)
	bottom := pr.GeoFromPixel(sw)

	return BoundingBox{
		MinLat: bottom.Lat,
		MaxLat: top.Lat,
		MinLon: bottom.Lon,
		MaxLon: top.Lon,
	}
}
