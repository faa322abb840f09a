// Package render owns the LED ring's color state. One of five generators
// proposes targets each frame, then every slot takes one linear step toward
// its target and the frame is packed for the driver.
package render

import (
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCount is the ring size of the reference build.
const DefaultCount = 68

// DefaultSeed starts the default animation on a purple.
const DefaultSeed = 90

// Driver receives one packed RGB frame, 3 bytes per LED in physical order.
type Driver interface {
	Write(rgb []byte) error
}

// Mapper maps a logical slot to a physical LED index.
type Mapper interface {
	Index(i int) int
}

// Engine renders frames for a fixed ring. Configure may be called from any
// goroutine; everything else belongs to the render loop.
type Engine struct {
	Drv Driver
	Map Mapper

	// Output scale in [0,1]; NewEngine sets 1.
	Brightness float64
	Limit      PowerLimit

	cfg   atomic.Pointer[Config]
	clock clockwork.Clock
	rng   *rand.Rand

	slots   []Slot
	fadeIn  int
	fadeOut int

	// generator state, kept across mode switches
	last        [numModes]time.Time
	defaultNext time.Time
	pulseFlip   bool
	flood       []uint8
	swirl       []uint8

	out []Color
	rgb []byte

	Last struct {
		FrameMS float64
	}
}

// NewEngine allocates an n-slot engine showing StartupConfig with every
// slot black.
func NewEngine(n int, clock clockwork.Clock, seed uint64) (*Engine, error) {
	if n <= 0 {
		return nil, errors.New("render: led count must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e := &Engine{
		Brightness: 1,

		clock: clock,
		rng:   rand.New(rand.NewPCG(seed, seed)),
		slots: make([]Slot, n),
		flood: floodBands(n),
		swirl: swirlBands(n),
		out:   make([]Color, n),
		rgb:   make([]byte, 3*n),
	}
	cfg := StartupConfig
	e.cfg.Store(&cfg)
	return e, nil
}

// Len is the number of slots.
func (e *Engine) Len() int { return len(e.slots) }

// Configure replaces the render configuration. The next frame uses it with
// whatever colors are on the ring.
func (e *Engine) Configure(c Config) {
	e.cfg.Store(&c)
}

// Config returns the active configuration.
func (e *Engine) Config() Config { return *e.cfg.Load() }

// Slot returns a copy of slot i.
func (e *Engine) Slot(i int) Slot { return e.slots[i] }

// FadeSteps reports the step counts set by the last generator run.
func (e *Engine) FadeSteps() (in, out int) { return e.fadeIn, e.fadeOut }

// Frame runs the active generator then steps every slot.
func (e *Engine) Frame() {
	cfg := e.cfg.Load()
	now := e.clock.Now()
	switch cfg.Mode {
	case Precipitation:
		e.precipitation(now, cfg)
	case Flood:
		e.floodFrame(now, cfg)
	case Pulse:
		e.pulse(now, cfg)
	case Swirl:
		e.swirlFrame(now, cfg)
	default:
		e.defaultFrame(now)
	}
	e.Step()
}

// Step advances every slot one interpolation step.
func (e *Engine) Step() {
	for i := range e.slots {
		e.slots[i].Step(e.fadeIn, e.fadeOut)
	}
}

// RGB returns the current frame packed 3 bytes per LED, after brightness
// and the power limiter, in physical order. The slice is reused.
func (e *Engine) RGB() []byte {
	for i := range e.slots {
		e.out[i] = e.slots[i].Current
	}
	if b := e.Brightness; b < 1 {
		applyGlobalScale(e.out, max(b, 0))
	}
	e.Limit.Apply(e.out)

	for i, c := range e.out {
		p := i
		if e.Map != nil {
			p = e.Map.Index(i)
		}
		if p < 0 || p >= len(e.out) {
			continue
		}
		e.rgb[3*p], e.rgb[3*p+1], e.rgb[3*p+2] = c.Bytes()
	}
	return e.rgb
}

// RenderOnce produces one frame and writes it to the driver.
func (e *Engine) RenderOnce() error {
	start := e.clock.Now()
	e.Frame()
	rgb := e.RGB()
	if e.Drv != nil {
		if err := e.Drv.Write(rgb); err != nil {
			return err
		}
	}
	e.Last.FrameMS = float64(e.clock.Since(start).Microseconds()) / 1000.0
	return nil
}
