package temporal

import (
	"math"

	"github.com/hyperjump/narraview/internal/render/svg"
)

// Point is a pixel position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MonotoneY returns path data through pts, treating y as the independent axis. Points must
// be ordered by non-decreasing y. Every Bézier control point lies between its segment's end
// points in y, so the curve never doubles back vertically.
func MonotoneY(pts []Point) string {
	var p svg.PathBuilder
	switch len(pts) {
	case 0:
		return ""
	case 1:
		return p.MoveTo(pts[0].X, pts[0].Y).String()
	case 2:
		return p.MoveTo(pts[0].X, pts[0].Y).LineTo(pts[1].X, pts[1].Y).String()
	}

	tangents := monotoneTangents(pts)
	p.MoveTo(pts[0].X, pts[0].Y)
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		h := b.Y - a.Y
		if h == 0 {
			p.LineTo(b.X, b.Y)
			continue
		}
		dy := h / 3
		p.CurveTo(a.X+tangents[i]*dy, a.Y+dy, b.X-tangents[i+1]*dy, b.Y-dy, b.X, b.Y)
	}
	return p.String()
}

// monotoneTangents computes dx/dy at each point with the Fritsch-Carlson limiter.
func monotoneTangents(pts []Point) []float64 {
	n := len(pts)
	t := make([]float64, n)
	for i := 1; i < n-1; i++ {
		h0 := pts[i].Y - pts[i-1].Y
		h1 := pts[i+1].Y - pts[i].Y
		if h0 <= 0 || h1 <= 0 {
			continue
		}
		s0 := (pts[i].X - pts[i-1].X) / h0
		s1 := (pts[i+1].X - pts[i].X) / h1
		p := (s0*h1 + s1*h0) / (h0 + h1)
		t[i] = (sign(s0) + sign(s1)) * math.Min(math.Min(math.Abs(s0), math.Abs(s1)), 0.5*math.Abs(p))
	}
	t[0] = endTangent(pts[0], pts[1], t[1])
	t[n-1] = endTangent(pts[n-2], pts[n-1], t[n-2])
	return t
}

func endTangent(a, b Point, inner float64) float64 {
	h := b.Y - a.Y
	if h <= 0 {
		return inner
	}
	return (3*(b.X-a.X)/h - inner) / 2
}

func sign(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
