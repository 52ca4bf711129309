package meridian

import "math"

// collinearEps bounds the determinant under which three points are considered collinear
const collinearEps = 1e-9

// Arc is a circle passing through three points of the trajectory
type Arc struct {
	Valid  bool
	Center Point
	Radius float64
}

// fitCircle returns circle through three points. Arc is not valid for collinear (or coincident) points.
func fitCircle(p1, p2, p3 Point) Arc {
	x1, y1 := p1.X, p1.Y
	x2, y2 := p2.X, p2.Y
	x3, y3 := p3.X, p3.Y

	d := 2 * (x1*(y2-y3) - y1*(x2-x3) + x2*y3 - x3*y2)
	if math.Abs(d) < collinearEps {
		return Arc{}
	}
	s1 := x1*x1 + y1*y1
	s2 := x2*x2 + y2*y2
	s3 := x3*x3 + y3*y3

	center := Point{
		X: (s1*(y2-y3) + s2*(y3-y1) + s3*(y1-y2)) / d,
		Y: (s1*(x3-x2) + s2*(x1-x3) + s3*(x2-x1)) / d,
	}
	return Arc{
		Valid:  true,
		Center: center,
		Radius: euclideanDistance(center, p1),
	}
}
