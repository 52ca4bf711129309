package vision

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// KernelSize is the size of elliptical structuring element used for morphological smoothing
const KernelSize = 5

// ErrEmptyFrame is returned when there is nothing to process
var ErrEmptyFrame = errors.New("empty frame")

// MaskBuilder isolates bright pixels of a BGR frame.
// It is not safe for concurrent use since scratch Mats are reused between calls.
type MaskBuilder struct {
	kernel gocv.Mat
	hsv    gocv.Mat
	tmp    gocv.Mat
}

// NewMaskBuilder creates builder with 5x5 elliptical structuring element. Call Close when done
func NewMaskBuilder() *MaskBuilder {
	return &MaskBuilder{
		kernel: gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: KernelSize, Y: KernelSize}),
		hsv:    gocv.NewMat(),
		tmp:    gocv.NewMat(),
	}
}

// Close releases underlying Mats
func (builder *MaskBuilder) Close() error {
	if err := builder.kernel.Close(); err != nil {
		return errors.Wrap(err, "Can't close kernel")
	}
	if err := builder.hsv.Close(); err != nil {
		return errors.Wrap(err, "Can't close HSV buffer")
	}
	return builder.tmp.Close()
}

// Build returns binary mask (CV_8UC1, same size as frame) of pixels inside the color range.
// Opening (erode then dilate) removes isolated noise pixels, closing (dilate then erode) fills small holes.
// The caller owns the returned Mat and has to close it even when error is returned.
func (builder *MaskBuilder) Build(frame gocv.Mat, rng ColorRange) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	rng = rng.Clamp()
	gocv.CvtColor(frame, &builder.hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(builder.hsv, rng.lower(), rng.upper(), &mask)

	// opening
	gocv.Erode(mask, &builder.tmp, builder.kernel)
	gocv.Dilate(builder.tmp, &mask, builder.kernel)

	// closing
	gocv.Dilate(mask, &builder.tmp, builder.kernel)
	gocv.Erode(builder.tmp, &mask, builder.kernel)

	return mask, nil
}
