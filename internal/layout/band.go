package layout

import "math"

// Band maps an ordered list of keys onto equal-width bands of a pixel range.
type Band struct {
	keys         []string
	index        map[string]int
	r0, r1       float64
	paddingInner float64
	paddingOuter float64
	step         float64
	bandwidth    float64
	start        float64
}

// NewBand builds a centered band scale. Duplicate keys keep their first position.
func NewBand(keys []string, r0, r1, paddingInner, paddingOuter float64) *Band {
	b := &Band{index: make(map[string]int, len(keys)), r0: r0, r1: r1}
	for _, k := range keys {
		if _, dup := b.index[k]; dup {
			continue
		}
		b.index[k] = len(b.keys)
		b.keys = append(b.keys, k)
	}
	b.paddingInner = math.Min(1, math.Max(0, paddingInner))
	b.paddingOuter = math.Max(0, paddingOuter)
	b.rescale()
	return b
}

func (b *Band) rescale() {
	n := float64(len(b.keys))
	span := b.r1 - b.r0
	b.step = span / math.Max(1, n-b.paddingInner+b.paddingOuter*2)
	b.start = b.r0 + (span-b.step*(n-b.paddingInner))*0.5
	b.bandwidth = b.step * (1 - b.paddingInner)
}

// Keys returns the domain in order.
func (b *Band) Keys() []string { return b.keys }

// Step is the distance between the starts of adjacent bands.
func (b *Band) Step() float64 { return b.step }

// Bandwidth is the width of one band.
func (b *Band) Bandwidth() float64 { return b.bandwidth }

// Position returns the start of key's band.
func (b *Band) Position(key string) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return 0, false
	}
	return b.start + b.step*float64(i), true
}

// Center returns the middle of key's band.
func (b *Band) Center(key string) (float64, bool) {
	x, ok := b.Position(key)
	if !ok {
		return 0, false
	}
	return x + b.bandwidth/2, true
}
