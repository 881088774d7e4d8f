package layout

import (
	"math"

	"github.com/hyperjump/narraview/internal/models"
)

// NarrativeTicks is the tick count used for the narrative-time axis.
const NarrativeTicks = 10

// NarrativeDomain returns [min(0, floor(min)), ceil(max)+1] over the events' narrative times.
func NarrativeDomain(events []models.Event) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, ev := range events {
		nt := ev.Temporal.NarrativeTime
		lo = math.Min(lo, math.Floor(nt))
		hi = math.Max(hi, nt)
	}
	return lo, math.Ceil(hi) + 1
}

// NarrativeScale maps narrative time onto [r0, r1], niced to round tick boundaries.
// Larger narrative times map to larger pixel values when r1 > r0.
func NarrativeScale(events []models.Event, r0, r1 float64) *Linear {
	d0, d1 := NarrativeDomain(events)
	return NewLinear(d0, d1, r0, r1).Nice(NarrativeTicks)
}
