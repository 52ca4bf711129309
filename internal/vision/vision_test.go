package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/LdDl/meridian/meridian"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	dim   = color.RGBA{R: 80, G: 80, B: 80, A: 0}
)

// blackFrame returns 640x480 BGR frame
func blackFrame() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 640, gocv.MatTypeCV8UC3)
}

func drawStar(frame *gocv.Mat, center image.Point, c color.RGBA) {
	gocv.Circle(frame, center, 6, c, -1)
}

func findBlob(blobs []meridian.Blob, near image.Point) (meridian.Blob, bool) {
	for _, blob := range blobs {
		if blob.DistanceTo(near) <= 2 {
			return blob, true
		}
	}
	return meridian.Blob{}, false
}

func TestColorRangeClamp(t *testing.T) {
	rng := ColorRange{HueMin: -5, HueMax: 300, SatMin: 200, SatMax: 100, ValMin: 0, ValMax: 1000}.Clamp()
	// Inverted pairs keep their order
	assert.Equal(t, ColorRange{HueMin: 0, HueMax: 179, SatMin: 200, SatMax: 100, ValMin: 0, ValMax: 255}, rng)
	assert.True(t, rng.Inverted())
	assert.False(t, DefaultColorRange().Inverted())
	assert.Equal(t, DefaultColorRange(), DefaultColorRange().Clamp())
}

func TestMaskBuilderEmptyFrame(t *testing.T) {
	builder := NewMaskBuilder()
	defer builder.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	mask, err := builder.Build(empty, DefaultColorRange())
	defer mask.Close()
	assert.Equal(t, ErrEmptyFrame, errors.Cause(err))
}

func TestMaskBuilderSize(t *testing.T) {
	builder := NewMaskBuilder()
	defer builder.Close()

	frame := blackFrame()
	defer frame.Close()
	drawStar(&frame, image.Pt(100, 100), white)

	mask, err := builder.Build(frame, DefaultColorRange())
	require.NoError(t, err)
	defer mask.Close()

	assert.Equal(t, frame.Rows(), mask.Rows())
	assert.Equal(t, frame.Cols(), mask.Cols())
	assert.Equal(t, 1, mask.Channels())
	assert.Positive(t, gocv.CountNonZero(mask))
}

func TestMaskBuilderIdempotent(t *testing.T) {
	builder := NewMaskBuilder()
	defer builder.Close()

	frame := blackFrame()
	defer frame.Close()
	drawStar(&frame, image.Pt(120, 80), white)
	drawStar(&frame, image.Pt(500, 300), white)
	gocv.Rectangle(&frame, image.Rect(300, 300, 301, 301), white, -1)

	first, err := builder.Build(frame, DefaultColorRange())
	require.NoError(t, err)
	defer first.Close()
	second, err := builder.Build(frame, DefaultColorRange())
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.ToBytes(), second.ToBytes())
}

func TestExtractBlobsDarkMask(t *testing.T) {
	mask := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer mask.Close()
	mask.SetTo(gocv.NewScalar(0, 0, 0, 0))

	blobs := ExtractBlobs(mask)
	require.NotNil(t, blobs)
	assert.Empty(t, blobs)
}

func TestDetectorFindsStars(t *testing.T) {
	detector := NewDetector()
	defer detector.Close()

	frame := blackFrame()
	defer frame.Close()
	drawStar(&frame, image.Pt(100, 120), white)
	drawStar(&frame, image.Pt(400, 50), white)
	// Isolated noise is removed by opening
	gocv.Rectangle(&frame, image.Rect(250, 250, 251, 251), white, -1)
	// Too faint for the default value range
	drawStar(&frame, image.Pt(600, 400), dim)

	result, err := detector.Detect(frame, DefaultColorRange())
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 640, result.Width)
	assert.Equal(t, 480, result.Height)
	require.Len(t, result.Blobs, 2)

	blob, ok := findBlob(result.Blobs, image.Pt(100, 120))
	require.True(t, ok, "star at (100,120) not found in %v", result.Blobs)
	assert.Equal(t, image.Pt(100, 120), blob.Centroid)
	assert.Greater(t, blob.Area, 50)
	assert.InDelta(t, 13, blob.BBox.Width, 2)
	assert.InDelta(t, 13, blob.BBox.Height, 2)

	_, ok = findBlob(result.Blobs, image.Pt(400, 50))
	assert.True(t, ok, "star at (400,50) not found in %v", result.Blobs)

	observation := result.Observation()
	assert.Equal(t, 320, observation.MidX())
	assert.Len(t, observation.Blobs, 2)
}

func TestDetectorValueRange(t *testing.T) {
	detector := NewDetector()
	defer detector.Close()

	frame := blackFrame()
	defer frame.Close()
	drawStar(&frame, image.Pt(600, 400), dim)

	rng := DefaultColorRange()
	result, err := detector.Detect(frame, rng)
	require.NoError(t, err)
	assert.Empty(t, result.Blobs)
	result.Close()

	rng.ValMin = 60
	result, err = detector.Detect(frame, rng)
	require.NoError(t, err)
	defer result.Close()
	require.Len(t, result.Blobs, 1)
	assert.Equal(t, image.Pt(600, 400), result.Blobs[0].Centroid)
}

func TestDetectorInvertedRangeMatchesNothing(t *testing.T) {
	detector := NewDetector()
	defer detector.Close()

	frame := blackFrame()
	defer frame.Close()
	drawStar(&frame, image.Pt(100, 120), white)

	rng := DefaultColorRange()
	rng.ValMin, rng.ValMax = 255, 100
	result, err := detector.Detect(frame, rng)
	require.NoError(t, err)
	defer result.Close()
	assert.Empty(t, result.Blobs)
	assert.Equal(t, 0, gocv.CountNonZero(result.Mask))
}
