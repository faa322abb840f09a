package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/funtimes-pufflux/internal/diagnostics"
	"github.com/coreman2200/funtimes-pufflux/internal/led"
	"github.com/coreman2200/funtimes-pufflux/internal/observability"
	"github.com/coreman2200/funtimes-pufflux/internal/render"
	"github.com/coreman2200/funtimes-pufflux/internal/selftest"
	"github.com/coreman2200/funtimes-pufflux/internal/sequence"
)

// FrameSink receives a copy of every frame written to the strip.
type FrameSink interface {
	Publish(rgb []byte)
}

// RenderLoop paces the engine at a fixed rate. A running self test takes
// over the strip until it finishes; a demo player, when set, is advanced
// before each engine frame.
type RenderLoop struct {
	Engine  *render.Engine
	Driver  led.Driver
	Map     selftest.Mapper
	FPS     int
	Clock   clockwork.Clock
	Metrics *observability.Metrics
	Sink    FrameSink
	Demo    *sequence.SafePlayer
	Diag    *diag.Log
	Logger  zerolog.Logger

	mu         sync.Mutex
	test       *selftest.Runner
	testFb     []byte
	brightness *float64
	frames     uint64
	errs       uint64
}

// SetBrightness takes effect on the next frame.
func (l *RenderLoop) SetBrightness(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.brightness = &v
}

// RunSelfTest replaces any running test.
func (l *RenderLoop) RunSelfTest(kind selftest.Kind, hold int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.test = selftest.NewRunner(selftest.Plan{Kind: kind, Hold: hold})
	l.testFb = make([]byte, 3*l.Engine.Len())
	l.Logger.Info().Str("test", string(kind)).Msg("self test started")
	l.Diag.Push(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: string(kind)})
}

// Testing reports the running self test, or selftest.None.
func (l *RenderLoop) Testing() selftest.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.test == nil {
		return selftest.None
	}
	return l.test.Kind()
}

// Frames counts frames written, including self-test frames.
func (l *RenderLoop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *RenderLoop) interval() time.Duration {
	fps := l.FPS
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

func (l *RenderLoop) clock() clockwork.Clock {
	if l.Clock == nil {
		l.Clock = clockwork.NewRealClock()
	}
	return l.Clock
}

// Run renders until ctx is done.
func (l *RenderLoop) Run(ctx context.Context) {
	dt := l.interval()
	ticker := l.clock().NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.Step(dt)
		}
	}
}

// Step produces and writes one frame.
func (l *RenderLoop) Step(dt time.Duration) {
	clock := l.clock()
	start := clock.Now()
	rgb := l.next(dt)
	var err error
	if l.Driver != nil {
		err = l.Driver.Write(rgb)
	}

	l.mu.Lock()
	l.frames++
	if err != nil {
		l.errs++
		// one line per second at 60fps is plenty
		if l.errs%60 == 1 {
			l.Logger.Warn().Err(err).Uint64("errors", l.errs).Msg("frame write failed")
		}
	}
	l.mu.Unlock()

	if l.Metrics != nil {
		l.Metrics.FramesRendered.Inc()
		if err != nil {
			l.Metrics.FrameErrors.Inc()
		}
		l.Metrics.FrameDuration.Observe(clock.Since(start).Seconds())
	}
	if err == nil && l.Sink != nil {
		l.Sink.Publish(rgb)
	}
}

func (l *RenderLoop) next(dt time.Duration) []byte {
	l.mu.Lock()
	if l.brightness != nil {
		l.Engine.Brightness = *l.brightness
		l.brightness = nil
	}
	if l.test != nil {
		if l.test.Step(l.Map, l.testFb) {
			fb := l.testFb
			l.mu.Unlock()
			return fb
		}
		kind := l.test.Kind()
		l.test = nil
		l.Logger.Info().Str("test", string(kind)).Msg("self test complete")
		l.Diag.Push(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete", Detail: string(kind)})
	}
	l.mu.Unlock()

	if l.Demo != nil {
		l.Demo.With(func(p *sequence.Player) { p.Tick(dt.Seconds()) })
	}
	l.Engine.Frame()
	return l.Engine.RGB()
}
