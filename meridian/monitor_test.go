package meridian

import (
	"testing"

	"github.com/pkg/errors"
)

func detectionAt(x, y int) Detection {
	return Detection{Found: true, Blob: NewBlob(x, y, 1)}
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"LR":            LeftToRight,
		"lr":            LeftToRight,
		" RL ":          RightToLeft,
		"right-to-left": RightToLeft,
		"left-to-right": LeftToRight,
	}
	for input, expected := range cases {
		direction, err := ParseDirection(input)
		if err != nil {
			t.Errorf("Unexpected error for '%s': %v", input, err)
			continue
		}
		if direction != expected {
			t.Errorf("Wrong direction for '%s': %s, expected: %s", input, direction, expected)
		}
	}
	_, err := ParseDirection("up")
	if errors.Cause(err) != ErrUnknownDirection {
		t.Errorf("Expected ErrUnknownDirection, got %v", err)
	}
}

func TestMonitorLeftToRight(t *testing.T) {
	monitor := NewMonitor()
	if monitor.Check(319, detectionAt(319, 50), 320, LeftToRight) {
		t.Errorf("Should not fire before the meridian")
	}
	if !monitor.Check(319, detectionAt(320, 50), 320, LeftToRight) {
		t.Errorf("Should fire when detection reaches the meridian")
	}
	if monitor.Check(319, detectionAt(330, 50), 320, LeftToRight) {
		t.Errorf("Should not fire twice for the same crossing")
	}
	// Star goes back and crosses again
	if monitor.Check(330, detectionAt(300, 50), 320, LeftToRight) {
		t.Errorf("Should not fire on backward crossing")
	}
	if !monitor.Armed() {
		t.Errorf("Monitor should be re-armed on origin side")
	}
	if !monitor.Check(300, detectionAt(321, 50), 320, LeftToRight) {
		t.Errorf("Should fire on new crossing")
	}
}

func TestMonitorRightToLeft(t *testing.T) {
	monitor := NewMonitor()
	if monitor.Check(340, detectionAt(321, 10), 320, RightToLeft) {
		t.Errorf("Should not fire before the meridian")
	}
	if monitor.Check(340, detectionAt(319, 10), 320, LeftToRight) {
		t.Errorf("Should not fire for opposite direction")
	}
	monitor.Rearm()
	if !monitor.Check(321, detectionAt(320, 10), 320, RightToLeft) {
		t.Errorf("Should fire when detection reaches the meridian")
	}
}

func TestMonitorNoDetection(t *testing.T) {
	monitor := NewMonitor()
	if monitor.Check(319, NoDetection(), 320, LeftToRight) {
		t.Errorf("Should never fire without detection")
	}
	if monitor.Check(321, NoDetection(), 320, RightToLeft) {
		t.Errorf("Should never fire without detection")
	}
	if !monitor.Armed() {
		t.Errorf("Monitor should stay armed")
	}
}

func TestMonitorNoSpuriousCrossing(t *testing.T) {
	monitor := NewMonitor()
	previousX := 250
	for _, x := range []int{260, 280, 300, 310, 318, 319, 319, 317} {
		if monitor.Check(previousX, detectionAt(x, 100), 320, LeftToRight) {
			t.Errorf("Unexpected crossing at x=%d", x)
		}
		previousX = x
	}
}
