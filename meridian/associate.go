package meridian

import "image"

// DefaultSnapTolerance is maximum distance (in pixels) at which detected blob is accepted as new position of tracked object
const DefaultSnapTolerance = 25.0

// Detection is the best candidate blob found on a single frame.
// When Found is false no blob has been detected and Blob must be ignored.
type Detection struct {
	Found bool
	Blob  Blob
	// Distance from the tracked position to the blob's centroid
	Distance float64
}

// NoDetection returns detection for frame without any blob
func NoDetection() Detection {
	return Detection{}
}

// Association is the outcome of matching detected blobs against tracked position
type Association struct {
	// Tracked position before association
	Previous image.Point
	// Tracked position after association
	Position image.Point
	// Closest blob (may be outside of tolerance)
	Detection Detection
	// Whether Position has been moved onto Detection's centroid
	Snapped bool
}

// Associate picks the blob closest to the current position.
// If it lies closer than tolerance the position snaps onto its centroid, otherwise the position is kept.
// Ties are broken in favour of the first blob in the slice.
func Associate(current image.Point, blobs []Blob, tolerance float64) Association {
	association := Association{
		Previous:  current,
		Position:  current,
		Detection: NoDetection(),
	}
	if len(blobs) == 0 {
		return association
	}
	priorityQueue := make(distanceHeap, 0, len(blobs))
	for i := range blobs {
		priorityQueue.Push(&candidate{
			blob:     blobs[i],
			distance: blobs[i].DistanceTo(current),
			order:    i,
		})
	}
	best := priorityQueue.Pop()
	association.Detection = Detection{
		Found:    true,
		Blob:     best.blob,
		Distance: best.distance,
	}
	if best.distance < tolerance {
		association.Position = best.blob.Centroid
		association.Snapped = true
	}
	return association
}
