package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// OpenCV keeps 8-bit hue in [0, 179] and saturation/value in [0, 255]
const (
	maxHue   = 179
	maxSatur = 255
	maxValue = 255
)

// ColorRange is the HSV box of pixels considered bright.
// Bounds are inclusive.
type ColorRange struct {
	HueMin int
	HueMax int
	SatMin int
	SatMax int
	ValMin int
	ValMax int
}

// DefaultColorRange keeps every hue and saturation with value (brightness) at least 100
func DefaultColorRange() ColorRange {
	return ColorRange{
		HueMin: 0,
		HueMax: maxHue,
		SatMin: 0,
		SatMax: maxSatur,
		ValMin: 100,
		ValMax: maxValue,
	}
}

// Clamp brings bounds into OpenCV's HSV domain. Order of bounds is kept:
// a pair with min > max matches no pixel, same as cv::inRange does.
func (rng ColorRange) Clamp() ColorRange {
	rng.HueMin, rng.HueMax = clampInt(rng.HueMin, 0, maxHue), clampInt(rng.HueMax, 0, maxHue)
	rng.SatMin, rng.SatMax = clampInt(rng.SatMin, 0, maxSatur), clampInt(rng.SatMax, 0, maxSatur)
	rng.ValMin, rng.ValMax = clampInt(rng.ValMin, 0, maxValue), clampInt(rng.ValMax, 0, maxValue)
	return rng
}

// Inverted reports whether any pair has min > max
func (rng ColorRange) Inverted() bool {
	return rng.HueMin > rng.HueMax || rng.SatMin > rng.SatMax || rng.ValMin > rng.ValMax
}

func (rng ColorRange) lower() gocv.Scalar {
	return gocv.NewScalar(float64(rng.HueMin), float64(rng.SatMin), float64(rng.ValMin), 0)
}

func (rng ColorRange) upper() gocv.Scalar {
	return gocv.NewScalar(float64(rng.HueMax), float64(rng.SatMax), float64(rng.ValMax), 0)
}

func (rng ColorRange) String() string {
	return fmt.Sprintf("H[%d..%d] S[%d..%d] V[%d..%d]", rng.HueMin, rng.HueMax, rng.SatMin, rng.SatMax, rng.ValMin, rng.ValMax)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
