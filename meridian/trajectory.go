package meridian

import (
	"image"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Sample is a single tracked position recorded during session
type Sample struct {
	Position image.Point
	// Time passed since session start
	Elapsed time.Duration
}

// Prediction is straight-line extrapolation of the trajectory across the frame: y = Slope*x + Intercept.
// Valid is false until the trajectory has at least two samples and one slope.
type Prediction struct {
	Valid        bool
	Slope        float64
	Intercept    float64
	YAtLeftEdge  float64
	YAtRightEdge float64
}

// YAt evaluates prediction line at given x
func (prediction Prediction) YAt(x float64) float64 {
	return prediction.Slope*x + prediction.Intercept
}

// Trajectory holds position and slope history of the current session.
// Insertion order is temporal order.
type Trajectory struct {
	samples []Sample
	slopes  []float64
	// Scratch buffers for means
	xs []float64
	ys []float64
}

// NewTrajectory creates empty trajectory
func NewTrajectory() *Trajectory {
	return &Trajectory{
		samples: make([]Sample, 0, 256),
		slopes:  make([]float64, 0, 256),
	}
}

// Reset drops whole history
func (trajectory *Trajectory) Reset() {
	trajectory.samples = trajectory.samples[:0]
	trajectory.slopes = trajectory.slopes[:0]
}

// Record appends current position to the history.
// Slope between previous and current position is appended only if the session already has a sample and horizontal displacement is non-zero.
func (trajectory *Trajectory) Record(previous, current image.Point, elapsed time.Duration) (float64, bool) {
	hasPrevious := len(trajectory.samples) > 0
	trajectory.samples = append(trajectory.samples, Sample{Position: current, Elapsed: elapsed})
	if !hasPrevious {
		return 0, false
	}
	run := previous.X - current.X
	if run == 0 {
		return 0, false
	}
	slope := float64(previous.Y-current.Y) / float64(run)
	trajectory.slopes = append(trajectory.slopes, slope)
	return slope, true
}

// Len returns number of recorded positions
func (trajectory *Trajectory) Len() int {
	return len(trajectory.samples)
}

// Samples returns copy of position history
func (trajectory *Trajectory) Samples() []Sample {
	samples := make([]Sample, len(trajectory.samples))
	copy(samples, trajectory.samples)
	return samples
}

// Slopes returns copy of slope history
func (trajectory *Trajectory) Slopes() []float64 {
	slopes := make([]float64, len(trajectory.slopes))
	copy(slopes, trajectory.slopes)
	return slopes
}

// AverageSlope returns running mean of slope history
func (trajectory *Trajectory) AverageSlope() (float64, bool) {
	if len(trajectory.slopes) == 0 {
		return 0, false
	}
	return stat.Mean(trajectory.slopes, nil), true
}

// AveragePosition returns mean of all recorded positions
func (trajectory *Trajectory) AveragePosition() (Point, bool) {
	if len(trajectory.samples) == 0 {
		return Point{}, false
	}
	trajectory.xs = trajectory.xs[:0]
	trajectory.ys = trajectory.ys[:0]
	for _, sample := range trajectory.samples {
		trajectory.xs = append(trajectory.xs, float64(sample.Position.X))
		trajectory.ys = append(trajectory.ys, float64(sample.Position.Y))
	}
	return Point{
		X: stat.Mean(trajectory.xs, nil),
		Y: stat.Mean(trajectory.ys, nil),
	}, true
}

// Prediction derives the line through the mean position with the average slope.
// Endpoints are evaluated at the left edge (x = 0) and at the right edge (x = 2*frameMidX).
func (trajectory *Trajectory) Prediction(frameMidX int) Prediction {
	if len(trajectory.samples) < 2 {
		return Prediction{}
	}
	slope, ok := trajectory.AverageSlope()
	if !ok {
		return Prediction{}
	}
	mean, _ := trajectory.AveragePosition()
	intercept := mean.Y - slope*mean.X
	prediction := Prediction{
		Valid:     true,
		Slope:     slope,
		Intercept: intercept,
	}
	prediction.YAtLeftEdge = prediction.YAt(0)
	prediction.YAtRightEdge = prediction.YAt(float64(2 * frameMidX))
	return prediction
}

// Arc fits circle through the first recorded position, the mean position and the last recorded position
func (trajectory *Trajectory) Arc() Arc {
	if len(trajectory.samples) < 2 {
		return Arc{}
	}
	mean, _ := trajectory.AveragePosition()
	first := NewPointFrom(trajectory.samples[0].Position)
	last := NewPointFrom(trajectory.samples[len(trajectory.samples)-1].Position)
	return fitCircle(first, mean, last)
}
