package render

import "time"

// Per-mode (fade in, fade out) step counts.
const (
	defaultFadeIn, defaultFadeOut = 512, 1024
	precipFadeIn, precipFadeOut   = 4, 128
	pulseFadeSteps                = 128
)

// Tick periods, fast then slow. Default picks its own random period.
var intervals = [numModes][2]time.Duration{
	Precipitation: {100 * time.Millisecond, 256 * time.Millisecond},
	Flood:         {15 * time.Millisecond, 40 * time.Millisecond},
	Pulse:         {1024 * time.Millisecond, 4096 * time.Millisecond},
	Swirl:         {10 * time.Millisecond, 30 * time.Millisecond},
}

// Interval returns the tick period for m.
func Interval(m Mode, fast bool) time.Duration {
	if !m.Valid() {
		return 0
	}
	if fast {
		return intervals[m][0]
	}
	return intervals[m][1]
}

// due reports whether mode m's timer has elapsed and restarts it if so.
// A timer that has never run is always due.
func (e *Engine) due(m Mode, now time.Time, fast bool) bool {
	last := e.last[m]
	if !last.IsZero() && now.Sub(last) <= Interval(m, fast) {
		return false
	}
	e.last[m] = now
	return true
}

func (e *Engine) setAll(c Color) {
	for i := range e.slots {
		e.slots[i].SetTarget(c)
	}
}

func (e *Engine) fromBands(bands []uint8, cfg *Config) {
	ids := [3]Color{Black.Color(), cfg.Base.Color(), cfg.Highlight.Color()}
	for i, b := range bands {
		e.slots[i].SetTarget(ids[b])
	}
}

// defaultFrame scatters one random color over about a third of the ring
// every 1 to 10 seconds. The speed flag does not apply.
func (e *Engine) defaultFrame(now time.Time) {
	e.fadeIn, e.fadeOut = defaultFadeIn, defaultFadeOut
	if !e.defaultNext.IsZero() && !now.After(e.defaultNext) {
		return
	}
	c := Color{
		R: float64(e.rng.IntN(256)) / 255,
		G: float64(e.rng.IntN(256)) / 255,
		B: float64(e.rng.IntN(256)) / 255,
	}
	// cut one channel for more vivid colors
	switch e.rng.IntN(3) {
	case 0:
		c.R /= 3
	case 1:
		c.G /= 3
	case 2:
		c.B /= 3
	}
	black := Black.Color()
	for i := range e.slots {
		if e.rng.IntN(3) == 0 {
			e.slots[i].SetTarget(c)
		} else {
			e.slots[i].SetTarget(black)
		}
	}
	e.defaultNext = now.Add(time.Duration(1000+e.rng.IntN(9000)) * time.Millisecond)
}

// precipitation twinkles: each tick every LED has a 1-in-n chance of the
// base color, the same of the highlight, and is black otherwise.
func (e *Engine) precipitation(now time.Time, cfg *Config) {
	e.fadeIn, e.fadeOut = precipFadeIn, precipFadeOut
	if !e.due(Precipitation, now, cfg.Fast) {
		return
	}
	n := len(e.slots)
	for i := range e.slots {
		id := Black
		switch e.rng.IntN(n) {
		case 0:
			id = cfg.Base
		case 1:
			id = cfg.Highlight
		}
		e.slots[i].SetTarget(id.Color())
	}
}

func (e *Engine) floodFrame(now time.Time, cfg *Config) {
	e.fromBands(e.flood, cfg)
	e.fadeIn, e.fadeOut = 1, 1
	if e.due(Flood, now, cfg.Fast) {
		rotateFlood(e.flood)
	}
}

func (e *Engine) pulse(now time.Time, cfg *Config) {
	e.fadeIn, e.fadeOut = pulseFadeSteps, pulseFadeSteps
	if !e.due(Pulse, now, cfg.Fast) {
		return
	}
	if e.pulseFlip {
		e.setAll(cfg.Base.Color())
	} else {
		e.setAll(cfg.Highlight.Color())
	}
	e.pulseFlip = !e.pulseFlip
}

func (e *Engine) swirlFrame(now time.Time, cfg *Config) {
	e.fromBands(e.swirl, cfg)
	e.fadeIn, e.fadeOut = 1, 1
	if e.due(Swirl, now, cfg.Fast) {
		rotateRight(e.swirl)
	}
}
