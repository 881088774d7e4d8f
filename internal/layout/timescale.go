package layout

import (
	"math"
	"time"

	"github.com/hyperjump/narraview/internal/models"
)

// TimeExtent returns the earliest and latest real time among events. ok is false when no
// event carries one; callers must check it before building a TimeScale.
func TimeExtent(events []models.Event) (lo, hi time.Time, ok bool) {
	for _, ev := range events {
		if !ev.Temporal.HasRealTime() {
			continue
		}
		t := *ev.Temporal.RealTime
		if !ok {
			lo, hi, ok = t, t, true
			continue
		}
		if t.Before(lo) {
			lo = t
		}
		if t.After(hi) {
			hi = t
		}
	}
	return lo, hi, ok
}

// TimeDomain widens a zero-width extent so the scale stays invertible. The fallback
// instant (typically the dataset publish date) is folded in when it differs from lo;
// otherwise the extent is padded by a day on both sides.
func TimeDomain(lo, hi time.Time, fallback time.Time, hasFallback bool) (time.Time, time.Time) {
	if !lo.Equal(hi) {
		return lo, hi
	}
	if hasFallback && !fallback.Equal(lo) {
		if fallback.Before(lo) {
			return fallback, hi
		}
		return lo, fallback
	}
	return lo.Add(-24 * time.Hour), hi.Add(24 * time.Hour)
}

// TimeScale maps wall-clock instants onto a pixel range.
type TimeScale struct {
	t0, t1 time.Time
	lin    *Linear
}

// NewTimeScale returns a time scale from [t0, t1] to [r0, r1].
func NewTimeScale(t0, t1 time.Time, r0, r1 float64) *TimeScale {
	return &TimeScale{t0: t0, t1: t1, lin: NewLinear(unixMillis(t0), unixMillis(t1), r0, r1)}
}

// Domain returns the instants at the ends of the range.
func (s *TimeScale) Domain() (time.Time, time.Time) { return s.t0, s.t1 }

// Scale maps t to pixels.
func (s *TimeScale) Scale(t time.Time) float64 { return s.lin.Scale(unixMillis(t)) }

// Invert maps a pixel back to an instant.
func (s *TimeScale) Invert(px float64) time.Time {
	ms := s.lin.Invert(px)
	return time.UnixMilli(int64(math.Round(ms))).UTC()
}

// PerPixel is the time span covered by one pixel.
func (s *TimeScale) PerPixel() time.Duration {
	r0, r1 := s.lin.Range()
	px := math.Abs(r1 - r0)
	if px == 0 {
		return 0
	}
	return time.Duration(float64(s.t1.Sub(s.t0)) / px)
}

// TimeTick is one labelled axis tick.
type TimeTick struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
}

type tickInterval struct {
	d      time.Duration
	months int
	format string
}

const day = 24 * time.Hour

var tickIntervals = []tickInterval{
	{d: time.Second, format: "15:04:05"},
	{d: 5 * time.Second, format: "15:04:05"},
	{d: 15 * time.Second, format: "15:04:05"},
	{d: 30 * time.Second, format: "15:04:05"},
	{d: time.Minute, format: "15:04"},
	{d: 5 * time.Minute, format: "15:04"},
	{d: 15 * time.Minute, format: "15:04"},
	{d: 30 * time.Minute, format: "15:04"},
	{d: time.Hour, format: "15:04"},
	{d: 3 * time.Hour, format: "Jan 02 15:04"},
	{d: 6 * time.Hour, format: "Jan 02 15:04"},
	{d: 12 * time.Hour, format: "Jan 02 15:04"},
	{d: day, format: "Jan 02"},
	{d: 2 * day, format: "Jan 02"},
	{d: 7 * day, format: "Jan 02"},
	{months: 1, format: "Jan 2006"},
	{months: 3, format: "Jan 2006"},
	{months: 12, format: "2006"},
}

func (iv tickInterval) approx() time.Duration {
	if iv.months > 0 {
		return time.Duration(iv.months) * 30 * day
	}
	return iv.d
}

// Ticks returns roughly count ticks at calendar-aligned instants inside the domain.
func (s *TimeScale) Ticks(count int) []TimeTick {
	lo, hi := s.t0, s.t1
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	if count <= 0 || !hi.After(lo) {
		return nil
	}
	target := hi.Sub(lo) / time.Duration(count)
	iv := tickIntervals[len(tickIntervals)-1]
	for _, cand := range tickIntervals {
		if cand.approx() >= target {
			iv = cand
			break
		}
	}
	if iv.months >= 12 {
		years := yearStep(lo, hi, count)
		iv.months = 12 * years
	}

	var ticks []TimeTick
	for t := floorTo(lo, iv); !t.After(hi); t = advance(t, iv) {
		if t.Before(lo) {
			continue
		}
		ticks = append(ticks, TimeTick{Time: t, Label: t.Format(iv.format)})
	}
	return ticks
}

func yearStep(lo, hi time.Time, count int) int {
	step := tickIncrement(float64(lo.Year()), float64(hi.Year()+1), count)
	if step < 1 {
		return 1
	}
	return int(step)
}

func floorTo(t time.Time, iv tickInterval) time.Time {
	t = t.UTC()
	switch {
	case iv.months >= 12:
		years := iv.months / 12
		y := t.Year() - t.Year()%years
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	case iv.months > 0:
		m := int(t.Month()) - 1
		m -= m % iv.months
		return time.Date(t.Year(), time.Month(m+1), 1, 0, 0, 0, 0, time.UTC)
	case iv.d >= day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(iv.d)
	}
}

func advance(t time.Time, iv tickInterval) time.Time {
	if iv.months > 0 {
		return t.AddDate(0, iv.months, 0)
	}
	return t.Add(iv.d)
}

func unixMillis(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Millisecond)
}
