package meridian

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Direction is the side-to-side movement of the star across the meridian
type Direction uint16

const (
	// LeftToRight is for star moving towards increasing x
	LeftToRight Direction = iota
	// RightToLeft is for star moving towards decreasing x
	RightToLeft
)

// ErrUnknownDirection is returned when direction can't be parsed
var ErrUnknownDirection = errors.New("unknown direction")

// ParseDirection accepts short ("LR", "RL") and long ("left-to-right", "right-to-left") notations
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lr", "left-to-right", "lefttoright":
		return LeftToRight, nil
	case "rl", "right-to-left", "righttoleft":
		return RightToLeft, nil
	default:
		return LeftToRight, errors.Wrapf(ErrUnknownDirection, "'%s'", s)
	}
}

func (direction Direction) String() string {
	switch direction {
	case LeftToRight:
		return "LR"
	case RightToLeft:
		return "RL"
	default:
		return "unknown"
	}
}

// CrossingEvent is raised when the tracked star passes the meridian
type CrossingEvent struct {
	SessionID uuid.UUID
	Direction Direction
	// Meridian position
	X int
	// Height at which the star crossed the meridian
	Y         int
	Timestamp time.Time
	// Time passed since session start
	Elapsed time.Duration
}

// Monitor watches positions relative to the meridian and fires once per actual crossing
type Monitor struct {
	armed bool
}

// NewMonitor creates armed monitor
func NewMonitor() *Monitor {
	return &Monitor{
		armed: true,
	}
}

// Rearm makes monitor ready to fire again
func (monitor *Monitor) Rearm() {
	monitor.armed = true
}

// Armed returns whether the next qualifying transition fires
func (monitor *Monitor) Armed() bool {
	return monitor.armed
}

// Check compares previous tracked x with x of the detected blob (before snapping).
// LeftToRight fires when previousX < midX <= detected x, RightToLeft fires when previousX > midX >= detected x.
// After firing the monitor stays silent until a detection is seen back on the origin side.
func (monitor *Monitor) Check(previousX int, detection Detection, midX int, direction Direction) bool {
	if !detection.Found {
		return false
	}
	x := detection.Blob.Centroid.X
	var crossed, onOrigin bool
	switch direction {
	case LeftToRight:
		crossed = previousX < midX && x >= midX
		onOrigin = x < midX
	case RightToLeft:
		crossed = previousX > midX && x <= midX
		onOrigin = x > midX
	}
	if onOrigin {
		monitor.armed = true
		return false
	}
	if !crossed || !monitor.armed {
		return false
	}
	monitor.armed = false
	return true
}
