package vision

import (
	"github.com/LdDl/meridian/meridian"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Result is the output of detection on a single frame
type Result struct {
	// Binary mask of bright pixels. Owned by the caller
	Mask   gocv.Mat
	Blobs  []meridian.Blob
	Width  int
	Height int
}

// Close releases the mask
func (result *Result) Close() error {
	return result.Mask.Close()
}

// Observation converts detection result to the tracking engine input
func (result *Result) Observation() meridian.Observation {
	return meridian.Observation{
		FrameWidth:  result.Width,
		FrameHeight: result.Height,
		Blobs:       result.Blobs,
	}
}

// Detector runs Mask Builder and Blob Extractor in sequence
type Detector struct {
	builder *MaskBuilder
}

// NewDetector creates new detector. Call Close when done
func NewDetector() *Detector {
	return &Detector{
		builder: NewMaskBuilder(),
	}
}

// Close releases resources of mask builder
func (detector *Detector) Close() error {
	return detector.builder.Close()
}

// Detect finds bright blobs on the frame
func (detector *Detector) Detect(frame gocv.Mat, rng ColorRange) (Result, error) {
	mask, err := detector.builder.Build(frame, rng)
	if err != nil {
		mask.Close()
		return Result{}, errors.Wrap(err, "Can't build mask")
	}
	return Result{
		Mask:   mask,
		Blobs:  ExtractBlobs(mask),
		Width:  frame.Cols(),
		Height: frame.Rows(),
	}, nil
}
