// Package curve implements the piecewise-linear curves used across the
// converter: key-weight curves, difficulty scaling and halo shapes.
package curve

import (
	"math"

	"github.com/negamartin/osu2sm/errors"
)

// Point is a single (x, y) control point.
type Point struct {
	X, Y float64
}

// Curve is an ordered set of control points with strictly increasing x.
// Evaluation outside the domain clamps to the nearest endpoint value;
// evaluation inside interpolates linearly between the bracketing points.
type Curve struct {
	points []Point
}

// New validates the control points and builds a curve.
func New(points []Point) (*Curve, error) {
	if len(points) == 0 {
		return nil, errors.NewConfigError("curve needs at least one control point")
	}
	for i := 1; i < len(points); i++ {
		if !(points[i].X > points[i-1].X) {
			return nil, errors.NewConfigError(
				"curve x values must strictly increase (%g then %g)",
				points[i-1].X, points[i].X)
		}
	}
	return &Curve{points: append([]Point(nil), points...)}, nil
}

// MustNew builds a curve from known-good points, panicking on invalid
// input. Intended for hardcoded defaults.
func MustNew(points []Point) *Curve {
	c, err := New(points)
	if err != nil {
		panic(err)
	}
	return c
}

// FromPairs builds a curve from a flat [[x, y], ...] list, the shape curve
// literals take in configuration.
func FromPairs(pairs [][2]float64) (*Curve, error) {
	points := make([]Point, len(pairs))
	for i, p := range pairs {
		points[i] = Point{X: p[0], Y: p[1]}
	}
	return New(points)
}

// Eval evaluates the curve at x.
func (c *Curve) Eval(x float64) float64 {
	pts := c.points
	if x <= pts[0].X || math.IsInf(x, -1) {
		return pts[0].Y
	}
	last := pts[len(pts)-1]
	if x >= last.X || math.IsInf(x, 1) {
		return last.Y
	}
	// Find the bracketing segment. Curves are tiny (a handful of points),
	// so a linear scan beats a binary search in practice.
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].X {
			a, b := pts[i-1], pts[i]
			t := (x - a.X) / (b.X - a.X)
			return a.Y + t*(b.Y-a.Y)
		}
	}
	return last.Y
}

// Domain returns the x range covered by the control points.
func (c *Curve) Domain() (lo, hi float64) {
	return c.points[0].X, c.points[len(c.points)-1].X
}

// Points returns the curve's control points. The slice must not be
// modified.
func (c *Curve) Points() []Point {
	return c.points
}
