package meridian

import (
	"image"
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 341, Y: 264}
	p2 := Point{X: 421, Y: 427}
	correnctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correnctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correnctAnswer)
	}
}

func TestPixelDistance(t *testing.T) {
	answer := pixelDistance(image.Pt(100, 100), image.Pt(103, 104))
	if math.Abs(answer-5.0) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, 5.0)
	}
}

func TestPointPixel(t *testing.T) {
	cases := []struct {
		in   Point
		want image.Point
	}{
		{Point{X: 10.4, Y: 20.6}, image.Pt(10, 21)},
		{Point{X: 10.5, Y: 0.49}, image.Pt(11, 0)},
		{Point{X: 0, Y: 0}, image.Pt(0, 0)},
	}
	for _, c := range cases {
		if got := c.in.Pixel(); got != c.want {
			t.Errorf("Pixel(%v) = %v, expected %v", c.in, got, c.want)
		}
	}
}

func TestRectangleFrom(t *testing.T) {
	rect := NewRectFrom(image.Rect(10, 20, 30, 60))
	if rect != NewRect(10, 20, 20, 40) {
		t.Errorf("Wrong rectangle: %v, expected {10 20 20 40}", rect)
	}
}
