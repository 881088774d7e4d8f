package layout

import "math"

const (
	// DefaultColumnFloor is the column count that sparse fits of 3 or more are raised to.
	DefaultColumnFloor = 5
	// HardMinColumnWidth is the narrowest a column may shrink to when the floor forces more
	// columns than fit at the configured minimum.
	HardMinColumnWidth = 30
)

// ColumnFit returns how many columns of at least minWidth fit in available with gap between
// them, raising a fit of 3 or 4 to 5. It never returns less than 1.
func ColumnFit(available, minWidth, gap float64) int {
	return fitColumns(available, minWidth, gap, DefaultColumnFloor)
}

func fitColumns(available, minWidth, gap float64, floor int) int {
	if minWidth+gap <= 0 {
		return 1
	}
	raw := int(math.Floor((available + gap) / (minWidth + gap)))
	if raw >= 3 && raw < floor {
		raw = floor
	}
	if raw < 1 {
		raw = 1
	}
	return raw
}

// ColumnWidth splits available among n columns, capped at maxWidth. When n columns cannot
// fit, the width shrinks to HardMinColumnWidth and no further.
func ColumnWidth(available, gap, maxWidth float64, n int) float64 {
	if n < 1 {
		n = 1
	}
	w := (available - gap*float64(n-1)) / float64(n)
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	if w < HardMinColumnWidth {
		w = HardMinColumnWidth
	}
	return w
}

// CenterOffset is the extra left offset that centers total inside available.
func CenterOffset(available, total float64) float64 {
	if total >= available {
		return 0
	}
	return (available - total) / 2
}

// Columns is the resolved column geometry for one render.
type Columns struct {
	Count  int     `json:"count"`
	Width  float64 `json:"width"`
	Gap    float64 `json:"gap"`
	Offset float64 `json:"offset"`
	Total  float64 `json:"total"`
}

// FitColumns chooses how many of candidates columns to show inside available and how wide
// they are. Offset is relative to the plot's left edge.
func FitColumns(available float64, candidates int, cfg Config) Columns {
	if candidates <= 0 {
		return Columns{Gap: cfg.ColumnGap}
	}
	floor := cfg.ColumnFloor
	if floor == 0 {
		floor = DefaultColumnFloor
	}
	n := fitColumns(available, cfg.MinColumnWidth, cfg.ColumnGap, floor)
	if n > candidates {
		n = candidates
	}
	w := ColumnWidth(available, cfg.ColumnGap, cfg.MaxColumnWidth, n)
	total := w*float64(n) + cfg.ColumnGap*float64(n-1)
	return Columns{
		Count:  n,
		Width:  w,
		Gap:    cfg.ColumnGap,
		Offset: CenterOffset(available, total),
		Total:  total,
	}
}

// Band returns a band scale placing keys on these columns, shifted by left.
func (c Columns) Band(keys []string, left float64) *Band {
	inner := 0.0
	if len(keys) > 1 && c.Width+c.Gap > 0 {
		inner = c.Gap / (c.Width + c.Gap)
	}
	start := left + c.Offset
	return NewBand(keys, start, start+c.Total, inner, 0)
}
