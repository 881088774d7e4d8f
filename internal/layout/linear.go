package layout

import "math"

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Linear maps a continuous numeric domain onto a pixel range.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear returns a linear scale from [d0, d1] to [r0, r1].
func NewLinear(d0, d1, r0, r1 float64) *Linear {
	return &Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Domain returns the current domain bounds.
func (s *Linear) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the pixel range bounds.
func (s *Linear) Range() (float64, float64) { return s.r0, s.r1 }

// Scale maps v to pixels. A zero-width domain maps everything to the range midpoint.
func (s *Linear) Scale(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

// Invert maps a pixel back into the domain.
func (s *Linear) Invert(px float64) float64 {
	if s.r1 == s.r0 {
		return s.d0
	}
	return s.d0 + (px-s.r0)/(s.r1-s.r0)*(s.d1-s.d0)
}

// Nice extends the domain to round tick boundaries for roughly count ticks.
func (s *Linear) Nice(count int) *Linear {
	start, stop := s.d0, s.d1
	reversed := stop < start
	if reversed {
		start, stop = stop, start
	}
	var prestep float64
	for i := 0; i < 10; i++ {
		step := tickIncrement(start, stop, count)
		if step == 0 || step == prestep {
			break
		}
		if step > 0 {
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		} else {
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		}
		prestep = step
	}
	if reversed {
		start, stop = stop, start
	}
	s.d0, s.d1 = start, stop
	return s
}

// Ticks returns roughly count evenly spaced round values inside the domain.
func (s *Linear) Ticks(count int) []float64 {
	start, stop := s.d0, s.d1
	if stop < start {
		start, stop = stop, start
	}
	if count <= 0 {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	step := tickIncrement(start, stop, count)
	var ticks []float64
	switch {
	case step > 0:
		i0, i1 := math.Ceil(start/step), math.Floor(stop/step)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i*step)
		}
	case step < 0:
		inc := -step
		i0, i1 := math.Ceil(start*inc), math.Floor(stop*inc)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i/inc)
		}
	}
	return ticks
}

// tickIncrement returns the tick step for [start, stop]. Negative values encode the
// reciprocal of a sub-unit step so that ticks stay exact.
func tickIncrement(start, stop float64, count int) float64 {
	if count <= 0 || stop <= start {
		return 0
	}
	step := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step))
	errv := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case errv >= e10:
		factor = 10
	case errv >= e5:
		factor = 5
	case errv >= e2:
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}
