package vision

import (
	"image"

	"github.com/LdDl/meridian/meridian"
	"gocv.io/x/gocv"
)

// Columns of stats Mat produced by connected components analysis
const (
	statLeft   = 0
	statTop    = 1
	statWidth  = 2
	statHeight = 3
	statArea   = 4
)

// ExtractBlobs finds 8-connected regions of the mask. Background (label 0) is skipped.
// Empty mask gives empty non-nil slice.
func ExtractBlobs(mask gocv.Mat) []meridian.Blob {
	blobs := make([]meridian.Blob, 0)
	if mask.Empty() {
		return blobs
	}

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	// OpenCV defaults: 8-connectivity, CV_32S labels
	components := gocv.ConnectedComponentsWithStats(mask, &labels, &stats, &centroids)
	for i := 1; i < components; i++ {
		left := int(stats.GetIntAt(i, statLeft))
		top := int(stats.GetIntAt(i, statTop))
		bbox := image.Rect(left, top, left+int(stats.GetIntAt(i, statWidth)), top+int(stats.GetIntAt(i, statHeight)))
		centroid := meridian.NewPoint(centroids.GetDoubleAt(i, 0), centroids.GetDoubleAt(i, 1))
		blobs = append(blobs, meridian.NewBlobFrom(centroid, int(stats.GetIntAt(i, statArea)), bbox))
	}
	return blobs
}
