package meridian

import "image"

// Blob is a connected region of bright pixels detected on a single frame.
// It is reduced to its centroid, area (pixel count) and bounding box.
type Blob struct {
	Centroid image.Point
	Area     int
	BBox     Rectangle
}

// NewBlob creates blob with given centroid and pixel count
func NewBlob(x, y, area int) Blob {
	return Blob{
		Centroid: image.Point{X: x, Y: y},
		Area:     area,
		BBox:     NewRect(float64(x), float64(y), 1, 1),
	}
}

// NewBlobFrom creates blob from sub-pixel centroid and stats of connected component
func NewBlobFrom(centroid Point, area int, bbox image.Rectangle) Blob {
	return Blob{
		Centroid: centroid.Pixel(),
		Area:     area,
		BBox:     NewRectFrom(bbox),
	}
}

// DistanceTo returns distance from blob's centroid to the given point
func (blob Blob) DistanceTo(p image.Point) float64 {
	return pixelDistance(blob.Centroid, p)
}
