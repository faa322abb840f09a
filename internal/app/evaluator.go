package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-pufflux/internal/command"
	"github.com/coreman2200/funtimes-pufflux/internal/config"
	diag "github.com/coreman2200/funtimes-pufflux/internal/diagnostics"
	"github.com/coreman2200/funtimes-pufflux/internal/netstat"
	"github.com/coreman2200/funtimes-pufflux/internal/observability"
	"github.com/coreman2200/funtimes-pufflux/internal/render"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
	"github.com/coreman2200/funtimes-pufflux/internal/weather"
)

const (
	// DisconnectedBackoff is the wait while the link is down.
	DisconnectedBackoff = 2 * time.Second
	// FailureBackoff is the wait after any failed lookup or fetch.
	FailureBackoff = 10 * time.Second
	// TickInterval is how often Run checks the schedule.
	TickInterval = 250 * time.Millisecond
)

// HazardSource is the network side of an evaluation. *weather.Client
// implements it.
type HazardSource interface {
	Geocode(ctx context.Context, text string) (weather.Coordinates, error)
	ResolveGrid(ctx context.Context, coords weather.Coordinates) (weather.Grid, error)
	ActiveHazard(ctx context.Context, coords weather.Coordinates) (vtec.Classification, error)
}

// Display takes a new render configuration. *render.Engine implements it.
type Display interface {
	Configure(c render.Config)
}

// Outcome is what one Tick did.
type Outcome string

const (
	Skipped       Outcome = "skipped"
	Disconnected  Outcome = "disconnected"
	GeocodeFailed Outcome = "geocode_failed"
	GridFailed    Outcome = "grid_failed"
	FetchFailed   Outcome = "fetch_failed"
	Evaluated     Outcome = "evaluated"
)

// EvaluatorConfig wires an Evaluator.
type EvaluatorConfig struct {
	Source   HazardSource
	Display  Display
	Net      netstat.Checker
	Clock    clockwork.Clock
	Metrics  *observability.Metrics
	Diag     *diag.Log
	Logger   zerolog.Logger
	Location string
	Poll     time.Duration

	// Fixed skips geocoding when set.
	Fixed weather.Coordinates
	// StatePath persists resolved coordinates and grid, "" disables.
	StatePath string
}

// Evaluator decides when to poll and turns results into render
// configurations. Tick never blocks longer than one lookup.
type Evaluator struct {
	src       HazardSource
	display   Display
	net       netstat.Checker
	clock     clockwork.Clock
	metrics   *observability.Metrics
	diag      *diag.Log
	logger    zerolog.Logger
	location  string
	poll      time.Duration
	statePath string

	mu     sync.Mutex
	coords weather.Coordinates
	grid   weather.Grid
	next   time.Time
	last   time.Time
	hazard vtec.Classification
	err    error
	cmd    command.Command
}

func NewEvaluator(c EvaluatorConfig) *Evaluator {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Net == nil {
		c.Net = netstat.Always{}
	}
	if c.Poll <= 0 {
		c.Poll = 5 * time.Minute
	}
	e := &Evaluator{
		src:       c.Source,
		display:   c.Display,
		net:       c.Net,
		clock:     c.Clock,
		metrics:   c.Metrics,
		diag:      c.Diag,
		logger:    c.Logger,
		location:  c.Location,
		poll:      c.Poll,
		statePath: c.StatePath,
		coords:    c.Fixed,
		hazard:    vtec.None,
	}
	e.restore()
	return e
}

// restore reuses a state file written for the same location.
func (e *Evaluator) restore() {
	if e.statePath == "" {
		return
	}
	st, err := config.LoadState(e.statePath)
	if err != nil {
		e.logger.Warn().Err(err).Str("path", e.statePath).Msg("state file unreadable; resolving again")
		return
	}
	if st.Location != e.location {
		return
	}
	if e.coords.IsZero() {
		e.coords = st.Coordinates
	}
	if st.Coordinates == e.coords {
		e.grid = st.Grid
	}
	e.logger.Info().
		Stringer("coords", e.coords).
		Str("office", e.grid.Office).
		Msg("restored location state")
}

func (e *Evaluator) persist() {
	if e.statePath == "" {
		return
	}
	st := &config.State{Location: e.location, Coordinates: e.coords, Grid: e.grid}
	if err := config.SaveState(e.statePath, st); err != nil {
		e.logger.Warn().Err(err).Str("path", e.statePath).Msg("state save failed")
	}
}

// Tick runs one step of the schedule and returns immediately when the next
// evaluation is not due.
func (e *Evaluator) Tick(ctx context.Context) Outcome {
	now := e.clock.Now()
	e.mu.Lock()
	due := !now.Before(e.next)
	coords, grid := e.coords, e.grid
	e.mu.Unlock()
	if !due {
		return Skipped
	}

	out, hz, err := e.evaluate(ctx, coords, grid)
	e.record(now, out, hz, err)
	return out
}

func (e *Evaluator) evaluate(ctx context.Context, coords weather.Coordinates, grid weather.Grid) (Outcome, vtec.Classification, error) {
	if !e.net.Connected() {
		return Disconnected, vtec.None, nil
	}
	var err error
	if coords.IsZero() {
		if coords, err = e.src.Geocode(ctx, e.location); err != nil {
			return GeocodeFailed, vtec.None, err
		}
		e.mu.Lock()
		e.coords = coords
		e.mu.Unlock()
		e.persist()
	}
	if grid.IsZero() {
		if grid, err = e.src.ResolveGrid(ctx, coords); err != nil {
			return GridFailed, vtec.None, err
		}
		e.mu.Lock()
		e.grid = grid
		e.mu.Unlock()
		e.persist()
	}
	hz, err := e.src.ActiveHazard(ctx, coords)
	if err != nil {
		return FetchFailed, vtec.None, err
	}
	return Evaluated, hz, nil
}

func (e *Evaluator) record(now time.Time, out Outcome, hz vtec.Classification, err error) {
	if e.metrics != nil {
		e.metrics.EvaluationCycles.WithLabelValues(string(out)).Inc()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
	switch out {
	case Disconnected:
		e.next = now.Add(DisconnectedBackoff)
		e.logger.Debug().Msg("network down; waiting")
		return
	case Evaluated:
	default:
		e.next = now.Add(FailureBackoff)
		e.logger.Warn().Err(err).Str("outcome", string(out)).Dur("retry_in", FailureBackoff).Msg("evaluation failed")
		e.diag.Push(diag.Diagnostic{
			Severity: diag.Warn,
			Code:     "EVAL." + string(out),
			Summary:  "Weather evaluation failed",
			Detail:   errString(err),
			LikelyCauses: []string{
				"weather or geocode service unreachable",
				"unexpected response shape",
			},
			Evidence: map[string]any{"location": e.location},
		})
		return
	}

	cfg := ConfigFor(hz)
	e.display.Configure(cfg)
	e.hazard = hz
	e.cmd = command.MustEncode(cfg)
	e.last = now
	e.next = now.Add(e.poll)

	if e.metrics != nil {
		e.metrics.Significance.Set(float64(hz.Significance.Rank()))
		e.metrics.Category.Reset()
		e.metrics.Category.WithLabelValues(hz.Category.String()).Set(1)
	}
	e.logger.Info().
		Stringer("hazard", hz).
		Stringer("config", cfg).
		Stringer("command", e.cmd).
		Time("next", e.next).
		Msg("evaluated")
}

// Run ticks every TickInterval until ctx is done.
func (e *Evaluator) Run(ctx context.Context) {
	t := e.clock.NewTicker(TickInterval)
	defer t.Stop()
	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			e.Tick(ctx)
		}
	}
}

// EvaluatorStatus is a snapshot for the status server.
type EvaluatorStatus struct {
	Location    string
	Coordinates weather.Coordinates
	Grid        weather.Grid
	Hazard      vtec.Classification
	Command     command.Command
	Last        time.Time
	Next        time.Time
	Err         error
}

func (e *Evaluator) Status() EvaluatorStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EvaluatorStatus{
		Location:    e.location,
		Coordinates: e.coords,
		Grid:        e.grid,
		Hazard:      e.hazard,
		Command:     e.cmd,
		Last:        e.last,
		Next:        e.next,
		Err:         e.err,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
