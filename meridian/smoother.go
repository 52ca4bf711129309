package meridian

import (
	"image"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// smoother is 2D Kalman filter over tracked positions of a single session.
// It feeds diagnostics only and never changes association.
type smoother struct {
	tracker       *kalman_filter.Kalman2D
	current       Point
	nextEstimated Point
}

func newSmoother(start image.Point, dt float64) *smoother {
	/* Kalman filter props */
	ux := 1.0
	uy := 1.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	startPoint := NewPointFrom(start)
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(startPoint.X, startPoint.Y))
	return &smoother{
		tracker:       kf,
		current:       startPoint,
		nextEstimated: startPoint,
	}
}

// predict executes Kalman filter's first step
func (s *smoother) predict() Point {
	s.tracker.Predict()
	stateX, stateY := s.tracker.GetState()
	s.nextEstimated = Point{X: stateX, Y: stateY}
	return s.nextEstimated
}

// update executes Kalman filter's second step with measured position
func (s *smoother) update(measured image.Point) (Point, error) {
	err := s.tracker.Update(float64(measured.X), float64(measured.Y))
	if err != nil {
		return s.current, errors.Wrap(err, "Can't update position smoother")
	}
	stateX, stateY := s.tracker.GetState()
	s.current = Point{X: stateX, Y: stateY}
	return s.current, nil
}
