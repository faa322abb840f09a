// Package app wires the weather evaluator, the render engine, the LED driver
// and the status server into the running device.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-pufflux/internal/command"
	"github.com/coreman2200/funtimes-pufflux/internal/config"
	diag "github.com/coreman2200/funtimes-pufflux/internal/diagnostics"
	"github.com/coreman2200/funtimes-pufflux/internal/layout"
	"github.com/coreman2200/funtimes-pufflux/internal/led"
	"github.com/coreman2200/funtimes-pufflux/internal/netstat"
	"github.com/coreman2200/funtimes-pufflux/internal/observability"
	"github.com/coreman2200/funtimes-pufflux/internal/render"
	"github.com/coreman2200/funtimes-pufflux/internal/selftest"
	"github.com/coreman2200/funtimes-pufflux/internal/sequence"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
	"github.com/coreman2200/funtimes-pufflux/internal/weather"
	"github.com/coreman2200/funtimes-pufflux/internal/ws"
)

// DemoHoldS is how long the demo playlist shows each hazard.
const DemoHoldS = 8

// Deps are the collaborators InitCore does not build from config. Zero
// fields get production defaults.
type Deps struct {
	Clock    clockwork.Clock
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Driver   led.Driver
	Net      netstat.Checker
	Source   HazardSource
	Logger   zerolog.Logger
}

// Core is the assembled device.
type Core struct {
	Config     *config.Config
	Engine     *render.Engine
	Driver     led.Driver
	DriverKind string
	Loop       *RenderLoop
	Eval       *Evaluator
	Demo       *sequence.SafePlayer
	Diag       *diag.Log
	Server     *ws.Server
	Net        netstat.Checker

	logger zerolog.Logger

	mu      sync.Mutex
	demoHz  vtec.Classification
	demoHas bool
}

// InitCore builds everything cfg describes. A driver that fails to open
// falls back to the simulator so the status surface still works.
func InitCore(cfg *config.Config, d Deps) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	logger := d.Logger
	c := &Core{
		Config: cfg,
		Diag:   diag.NewLog(diag.DefaultSize, d.Clock),
		logger: logger,
	}

	// 1) Engine and ring mapping
	eng, err := render.NewEngine(cfg.LED.Count, d.Clock, render.DefaultSeed)
	if err != nil {
		return nil, err
	}
	ring := layout.Ring{Count: cfg.LED.Count, Offset: cfg.LED.Offset, Reverse: cfg.LED.Reverse}
	if !ring.Identity() {
		eng.Map = ring
	}
	eng.Brightness = cfg.LED.Brightness
	eng.Limit = render.PowerLimit{
		WhiteCap:      cfg.LED.Power.WhiteCap,
		ChannelMilliA: cfg.LED.Power.ChannelMilliA,
		BudgetMilliA:  cfg.LED.Power.BudgetMilliA,
		Knee:          cfg.LED.Power.Knee,
	}
	c.Engine = eng

	// 2) Driver
	c.DriverKind = cfg.LED.Driver
	c.Driver = d.Driver
	if c.Driver == nil {
		c.Driver = c.openDriver()
	}

	// 3) Network status
	c.Net = d.Net
	if c.Net == nil {
		c.Net = checkerFor(cfg)
	}

	// 4) Status server, which reads back through c
	c.Server = ws.NewServer(c, d.Gatherer, c.Diag, logger.With().Str("component", "http").Logger())

	// 5) Render loop
	c.Loop = &RenderLoop{
		Engine:  eng,
		Driver:  c.Driver,
		Map:     ring,
		FPS:     cfg.LED.FPS,
		Clock:   d.Clock,
		Metrics: d.Metrics,
		Sink:    c.Server,
		Diag:    c.Diag,
		Logger:  logger.With().Str("component", "render").Logger(),
	}

	// 6) Demo playlist or evaluator
	if cfg.Demo {
		c.Demo = sequence.NewSafePlayer(sequence.Hooks{
			Show: func(name string, hz vtec.Classification) {
				c.mu.Lock()
				c.demoHz, c.demoHas = hz, true
				c.mu.Unlock()
				eng.Configure(ConfigFor(hz))
				logger.Info().Str("clip", name).Stringer("hazard", hz).Msg("demo")
			},
			SetParam: func(name string, v float64) {
				if name == "brightness" {
					eng.Brightness = v
				}
			},
		})
		c.Demo.With(func(p *sequence.Player) {
			err = p.Load(sequence.Demo(DemoHoldS))
			p.Start()
		})
		if err != nil {
			return nil, err
		}
		c.Loop.Demo = c.Demo
	} else {
		src := d.Source
		if src == nil {
			src = weather.NewClient(weather.Options{
				GeocodeURL: cfg.Weather.GeocodeURL,
				WeatherURL: cfg.Weather.WeatherURL,
				UserAgent:  cfg.Weather.UserAgent,
				Timeout:    cfg.Weather.Timeout,
			}, d.Clock, d.Metrics, logger.With().Str("component", "weather").Logger())
		}
		fixed, _ := cfg.FixedCoordinates()
		c.Eval = NewEvaluator(EvaluatorConfig{
			Source:    src,
			Display:   eng,
			Net:       c.Net,
			Clock:     d.Clock,
			Metrics:   d.Metrics,
			Diag:      c.Diag,
			Logger:    logger.With().Str("component", "evaluator").Logger(),
			Location:  cfg.Location.Text,
			Poll:      cfg.PollInterval(),
			Fixed:     fixed,
			StatePath: cfg.StateFile,
		})
	}

	if cfg.LED.SelfTest != "" {
		k, _ := selftest.ParseKind(cfg.LED.SelfTest)
		c.RunSelfTest(k)
	}
	return c, nil
}

func (c *Core) openDriver() led.Driver {
	cfg := c.Config.LED
	drv, err := led.Open(led.Options{
		Kind:       cfg.Driver,
		Count:      cfg.Count,
		Device:     cfg.SPI.Dev,
		SpeedHz:    cfg.SPI.SpeedHz,
		ResetUs:    cfg.SPI.ResetUs,
		ColorOrder: cfg.ColorOrder,
	}, c.logger)
	if err == nil {
		return drv
	}
	c.logger.Warn().Err(err).
		Str("driver", cfg.Driver).
		Str("dev", cfg.SPI.Dev).
		Int("speed_hz", cfg.SPI.SpeedHz).
		Msg("driver init failed; falling back to SIM")
	c.Diag.Push(diag.Diagnostic{
		Severity:       diag.Err,
		Code:           "DRIVER.FALLBACK",
		Summary:        "LED driver failed to open; using the simulator",
		Detail:         err.Error(),
		LikelyCauses:   []string{"SPI not enabled", "no permission on the SPI device", "no terminal attached"},
		SuggestedFixes: []string{"enable SPI in the boot config", "run with access to the SPI device"},
		Evidence:       map[string]any{"driver": cfg.Driver, "dev": cfg.SPI.Dev},
	})
	c.DriverKind = led.KindSim
	return led.NewSim(cfg.Count, c.logger)
}

func checkerFor(cfg *config.Config) netstat.Checker {
	if cfg.Demo {
		return netstat.Always{}
	}
	return netstat.Interface{Name: cfg.Interface}
}

// Run starts the render loop, the evaluator or demo, and the status server,
// and blocks until ctx is done or the server fails.
func (c *Core) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	start := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	start(func() { c.Loop.Run(ctx) })
	start(func() { c.Server.Run(ctx, 30) })
	if c.Eval != nil {
		start(func() { c.Eval.Run(ctx) })
	}

	var err error
	if addr := c.Config.HTTPAddr; addr != "" {
		err = c.Server.ListenAndServe(ctx, addr)
		cancel()
	} else {
		<-ctx.Done()
	}
	wg.Wait()
	return err
}

// Close releases the driver after blanking it.
func (c *Core) Close() error {
	if c.Driver == nil {
		return nil
	}
	werr := c.Driver.Write(make([]byte, 3*c.Engine.Len()))
	return errors.Join(werr, c.Driver.Close())
}

// Status implements ws.Backend.
func (c *Core) Status() ws.Status {
	cfg := c.Engine.Config()
	st := ws.Status{
		Location:  c.Config.Location.Text,
		Config:    cfg,
		Driver:    c.DriverKind,
		Count:     c.Engine.Len(),
		FPS:       c.Config.LED.FPS,
		Frames:    c.Loop.Frames(),
		SelfTest:  string(c.Loop.Testing()),
		Demo:      c.Demo != nil,
		Connected: c.Net.Connected(),
		Hazard:    vtec.None.String(),
	}
	if cmd, err := command.Encode(cfg); err == nil {
		st.Command = cmd.String()
	}
	if c.Eval != nil {
		es := c.Eval.Status()
		st.Location = es.Location
		if !es.Coordinates.IsZero() {
			st.Coordinates = es.Coordinates.String()
		}
		st.Office = es.Grid.Office
		st.Hazard = es.Hazard.String()
		st.LastEval = timePtr(es.Last)
		st.NextEval = timePtr(es.Next)
		if es.Err != nil {
			st.LastError = es.Err.Error()
		}
	}
	c.mu.Lock()
	if c.demoHas {
		st.Hazard = c.demoHz.String()
	}
	c.mu.Unlock()
	return st
}

// Override implements ws.Backend. The next evaluation replaces it.
func (c *Core) Override(cfg render.Config) { c.Engine.Configure(cfg) }

// RunSelfTest implements ws.Backend.
func (c *Core) RunSelfTest(k selftest.Kind) {
	// hold each step long enough to see: a sweep runs about 4s on 68 LEDs
	hold := max(1, c.Config.LED.FPS/16)
	if k == selftest.RGBTest {
		hold = c.Config.LED.FPS
	}
	c.Loop.RunSelfTest(k, hold)
}

// SetBrightness implements ws.Backend.
func (c *Core) SetBrightness(v float64) { c.Loop.SetBrightness(v) }

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
