package render

import "math"

// PowerLimit caps LED current in two stages: a per-LED white cap on the
// channel sum, then a global budget with a soft knee. The zero value only
// clamps.
type PowerLimit struct {
	WhiteCap      float64 // max R+G+B per LED, 0 means 3 (no cap)
	ChannelMilliA float64 // mA per channel at full scale, 0 means 20
	BudgetMilliA  float64 // whole-ring budget, 0 disables
	Knee          float64 // fraction of budget where scaling starts, 0 means 0.9
}

// Estimate returns the modelled current draw of buf in mA.
func (p PowerLimit) Estimate(buf []Color) float64 {
	chanmA := p.ChannelMilliA
	if chanmA <= 0 {
		chanmA = 20
	}
	var total float64
	for _, c := range buf {
		total += (c.R + c.G + c.B) * chanmA
	}
	return total
}

// Apply limits buf in place.
func (p PowerLimit) Apply(buf []Color) {
	whiteCap := p.WhiteCap
	if whiteCap <= 0 {
		whiteCap = 3
	}
	knee := p.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}

	for i := range buf {
		c := &buf[i]
		c.R, c.G, c.B = clamp01(c.R), clamp01(c.G), clamp01(c.B)
		if s := c.R + c.G + c.B; s > whiteCap {
			k := whiteCap / s
			c.R *= k
			c.G *= k
			c.B *= k
		}
	}

	if p.BudgetMilliA <= 0 {
		return
	}
	total := p.Estimate(buf)
	if total <= 0 {
		return
	}
	start := knee * p.BudgetMilliA
	if total <= start {
		return
	}
	// Above the knee the excess is compressed toward the budget, never past it.
	room := p.BudgetMilliA - start
	limited := start + room*(1-math.Exp(-(total-start)/room))
	applyGlobalScale(buf, limited/total)
}

func applyGlobalScale(buf []Color, s float64) {
	if s >= 1 {
		return
	}
	for i := range buf {
		buf[i].R *= s
		buf[i].G *= s
		buf[i].B *= s
	}
}
