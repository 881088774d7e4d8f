package temporal

import "math"

// Label is one text label placed near its anchor point.
type Label struct {
	Index   int     `json:"index"`
	Text    string  `json:"text"`
	AnchorX float64 `json:"anchor_x"`
	AnchorY float64 `json:"anchor_y"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`

	vx, vy float64
}

// Bounds is the rectangle labels are kept inside.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// ForceOptions tunes the label simulation.
type ForceOptions struct {
	Offset          float64
	MaxIterations   int
	CollideStrength float64
	YStrength       float64
	XStrength       float64
}

// DefaultForceOptions returns the label simulation defaults.
func DefaultForceOptions() ForceOptions {
	return ForceOptions{Offset: 30, MaxIterations: 300, CollideStrength: 1, YStrength: 0.1, XStrength: 0.05}
}

const (
	alphaMin      = 0.001
	velocityDecay = 0.6
	collidePasses = 1
	labelPadding  = 4
)

var alphaDecay = 1 - math.Pow(alphaMin, 1.0/300)

// PlaceLabels runs the collision simulation synchronously until it cools below alphaMin or
// reaches the iteration cap, and returns the number of ticks run. Each label is pulled
// toward Offset pixels above its anchor, pushed out of overlapping labels, and clamped to b.
// Labels are centered on (X, Y).
func PlaceLabels(labels []*Label, b Bounds, opts ForceOptions) int {
	for _, l := range labels {
		l.X, l.Y = l.AnchorX, l.AnchorY-opts.Offset
		l.vx, l.vy = 0, 0
		clamp(l, b)
	}
	alpha := 1.0
	ticks := 0
	for ticks < opts.MaxIterations && alpha >= alphaMin {
		alpha += (0 - alpha) * alphaDecay
		for _, l := range labels {
			l.vx += (l.AnchorX - l.X) * opts.XStrength * alpha
			l.vy += (l.AnchorY - opts.Offset - l.Y) * opts.YStrength * alpha
		}
		for pass := 0; pass < collidePasses; pass++ {
			collide(labels, opts.CollideStrength)
		}
		for _, l := range labels {
			l.vx *= velocityDecay
			l.vy *= velocityDecay
			l.X += l.vx
			l.Y += l.vy
			clamp(l, b)
		}
		ticks++
	}
	return ticks
}

// collide separates overlapping rectangles along the axis of least overlap.
func collide(labels []*Label, strength float64) {
	for i := 0; i < len(labels); i++ {
		a := labels[i]
		for j := i + 1; j < len(labels); j++ {
			c := labels[j]
			dx := (c.X + c.vx) - (a.X + a.vx)
			dy := (c.Y + c.vy) - (a.Y + a.vy)
			ox := (a.Width+c.Width)/2 + labelPadding - math.Abs(dx)
			oy := (a.Height+c.Height)/2 + labelPadding - math.Abs(dy)
			if ox <= 0 || oy <= 0 {
				continue
			}
			if oy <= ox {
				shift := oy / 2 * strength
				if dy < 0 {
					shift = -shift
				}
				if dy == 0 {
					shift = math.Abs(shift)
				}
				a.vy -= shift
				c.vy += shift
			} else {
				shift := ox / 2 * strength
				if dx < 0 {
					shift = -shift
				}
				if dx == 0 {
					shift = math.Abs(shift)
				}
				a.vx -= shift
				c.vx += shift
			}
		}
	}
}

func clamp(l *Label, b Bounds) {
	hw, hh := l.Width/2, l.Height/2
	if b.MaxX-b.MinX >= l.Width {
		l.X = math.Max(b.MinX+hw, math.Min(b.MaxX-hw, l.X))
	}
	if b.MaxY-b.MinY >= l.Height {
		l.Y = math.Max(b.MinY+hh, math.Min(b.MaxY-hh, l.Y))
	}
}

// Overlaps reports whether two placed labels intersect.
func Overlaps(a, b *Label) bool {
	return math.Abs(a.X-b.X) < (a.Width+b.Width)/2 && math.Abs(a.Y-b.Y) < (a.Height+b.Height)/2
}
