package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-pufflux/internal/config"
	diag "github.com/coreman2200/funtimes-pufflux/internal/diagnostics"
	"github.com/coreman2200/funtimes-pufflux/internal/netstat"
	"github.com/coreman2200/funtimes-pufflux/internal/observability"
	"github.com/coreman2200/funtimes-pufflux/internal/render"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
	"github.com/coreman2200/funtimes-pufflux/internal/weather"
)

var (
	raleigh     = weather.Coordinates{Lat: "35.7796", Lon: "-78.6382"}
	raleighGrid = weather.Grid{Office: "RAH", X: "73", Y: "57"}
	floodWarn   = vtec.Classification{Category: vtec.Flood, Significance: vtec.Warning}
)

type fakeSource struct {
	mu                      sync.Mutex
	geocodes, grids, alerts int
	geocodeErr, alertErr    error
	hazard                  vtec.Classification
}

func (f *fakeSource) Geocode(context.Context, string) (weather.Coordinates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geocodes++
	if f.geocodeErr != nil {
		return weather.Coordinates{}, f.geocodeErr
	}
	return raleigh, nil
}

func (f *fakeSource) ResolveGrid(context.Context, weather.Coordinates) (weather.Grid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grids++
	return raleighGrid, nil
}

func (f *fakeSource) ActiveHazard(context.Context, weather.Coordinates) (vtec.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts++
	if f.alertErr != nil {
		return vtec.None, f.alertErr
	}
	return f.hazard, nil
}

type fakeDisplay struct {
	mu      sync.Mutex
	configs []render.Config
}

func (d *fakeDisplay) Configure(c render.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.configs = append(d.configs, c)
}

type harness struct {
	clock   *clockwork.FakeClock
	src     *fakeSource
	display *fakeDisplay
	net     *netstat.Switch
	metrics *observability.Metrics
	eval    *Evaluator
}

func newHarness(t *testing.T, mod func(*EvaluatorConfig)) *harness {
	t.Helper()
	h := &harness{
		clock:   clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		src:     &fakeSource{hazard: floodWarn},
		display: &fakeDisplay{},
		net:     &netstat.Switch{},
		metrics: observability.NewMetricsForTesting(),
	}
	cfg := EvaluatorConfig{
		Source:   h.src,
		Display:  h.display,
		Net:      h.net,
		Clock:    h.clock,
		Metrics:  h.metrics,
		Diag:     diag.NewLog(8, h.clock),
		Logger:   zerolog.Nop(),
		Location: "Raleigh, NC",
		Poll:     5 * time.Minute,
	}
	if mod != nil {
		mod(&cfg)
	}
	h.eval = NewEvaluator(cfg)
	return h
}

func TestEvaluator_Schedule(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.net.Set(false)
	require.Equal(t, Disconnected, h.eval.Tick(ctx))
	h.clock.Advance(DisconnectedBackoff - time.Millisecond)
	assert.Equal(t, Skipped, h.eval.Tick(ctx))
	assert.Zero(t, h.src.geocodes, "nothing is fetched while offline")

	h.net.Set(true)
	h.clock.Advance(time.Millisecond)
	h.src.geocodeErr = errors.New("dns")
	require.Equal(t, GeocodeFailed, h.eval.Tick(ctx))
	h.clock.Advance(FailureBackoff - time.Millisecond)
	assert.Equal(t, Skipped, h.eval.Tick(ctx))

	h.src.geocodeErr = nil
	h.clock.Advance(time.Millisecond)
	require.Equal(t, Evaluated, h.eval.Tick(ctx))
	assert.Equal(t, []render.Config{{Mode: render.Flood, Fast: true, Base: render.Black, Highlight: render.DarkBlue}}, h.display.configs)

	st := h.eval.Status()
	assert.Equal(t, raleigh, st.Coordinates)
	assert.Equal(t, raleighGrid, st.Grid)
	assert.Equal(t, floodWarn, st.Hazard)
	assert.Equal(t, "0x300a", st.Command.String())
	assert.Equal(t, h.clock.Now().Add(5*time.Minute), st.Next)

	h.clock.Advance(5*time.Minute - time.Millisecond)
	assert.Equal(t, Skipped, h.eval.Tick(ctx))
	h.clock.Advance(time.Millisecond)
	require.Equal(t, Evaluated, h.eval.Tick(ctx))
	assert.Equal(t, 2, h.src.geocodes, "resolved coordinates are reused")
	assert.Equal(t, 1, h.src.grids)
	assert.Equal(t, 2, h.src.alerts)

	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.EvaluationCycles.WithLabelValues("evaluated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EvaluationCycles.WithLabelValues("disconnected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.EvaluationCycles.WithLabelValues("geocode_failed")))
	assert.Equal(t, 7.0, testutil.ToFloat64(h.metrics.Significance))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Category.WithLabelValues("flood")))
}

func TestEvaluator_FetchFailureKeepsDisplay(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.Equal(t, Evaluated, h.eval.Tick(ctx))

	h.clock.Advance(5 * time.Minute)
	h.src.alertErr = &weather.StatusError{Endpoint: weather.EndpointAlerts, Code: http.StatusServiceUnavailable}
	require.Equal(t, FetchFailed, h.eval.Tick(ctx))
	assert.Len(t, h.display.configs, 1, "a failed fetch does not reconfigure")
	assert.Equal(t, floodWarn, h.eval.Status().Hazard)
	assert.Error(t, h.eval.Status().Err)

	h.clock.Advance(FailureBackoff)
	h.src.alertErr = nil
	h.src.hazard = vtec.None
	require.Equal(t, Evaluated, h.eval.Tick(ctx))
	assert.Equal(t, render.StartupConfig, h.display.configs[1])
	assert.NoError(t, h.eval.Status().Err)
}

func TestEvaluator_FixedCoordinatesSkipGeocode(t *testing.T) {
	h := newHarness(t, func(c *EvaluatorConfig) { c.Fixed = raleigh })
	require.Equal(t, Evaluated, h.eval.Tick(context.Background()))
	assert.Zero(t, h.src.geocodes)
	assert.Equal(t, 1, h.src.grids)
}

func TestEvaluator_StateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	h := newHarness(t, func(c *EvaluatorConfig) { c.StatePath = path })
	require.Equal(t, Evaluated, h.eval.Tick(context.Background()))

	st, err := config.LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, &config.State{Location: "Raleigh, NC", Coordinates: raleigh, Grid: raleighGrid}, st)

	again := newHarness(t, func(c *EvaluatorConfig) { c.StatePath = path })
	require.Equal(t, Evaluated, again.eval.Tick(context.Background()))
	assert.Zero(t, again.src.geocodes)
	assert.Zero(t, again.src.grids)

	moved := newHarness(t, func(c *EvaluatorConfig) {
		c.StatePath = path
		c.Location = "Boone, NC"
	})
	require.Equal(t, Evaluated, moved.eval.Tick(context.Background()))
	assert.Equal(t, 1, moved.src.geocodes, "state for another location is ignored")
}

func TestEvaluator_Run(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.eval.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		h.display.mu.Lock()
		defer h.display.mu.Unlock()
		return len(h.display.configs) == 1
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

const alertsBody = `{"type":"FeatureCollection","features":[
 {"properties":{"event":"Flood Watch","parameters":{"VTEC":["/O.NEW.KRAH.FA.A.0003.240601T1200Z-240602T0000Z/"]}}},
 {"properties":{"event":"Flood Warning","parameters":{"VTEC":["/O.NEW.KRAH.FL.W.0012.240601T1200Z-240602T0000Z/"]}}},
 {"properties":{"event":"Wind Advisory","parameters":{"VTEC":["/O.EXT.KRAH.WI.Y.0007.240601T1200Z-240601T2300Z/"]}}}
]}`

func TestEvaluator_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/arcgis/"):
			_, _ = w.Write([]byte(`{"locations":[{"name":"Raleigh, North Carolina","feature":{"geometry":{"x":-78.638179999999977,"y":35.779590000000041}}}]}`))
		case strings.HasPrefix(r.URL.Path, "/points/"):
			assert.Equal(t, "/points/35.7795,-78.6381", r.URL.Path)
			_, _ = w.Write([]byte(`{"properties":{"gridId":"RAH","gridX":73,"gridY":57}}`))
		case r.URL.Path == "/alerts/active":
			assert.Equal(t, "35.7795,-78.6381", r.URL.Query().Get("point"))
			_, _ = w.Write([]byte(alertsBody))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	clock := clockwork.NewFakeClock()
	eng, err := render.NewEngine(render.DefaultCount, clock, render.DefaultSeed)
	require.NoError(t, err)
	client := weather.NewClient(weather.Options{GeocodeURL: srv.URL, WeatherURL: srv.URL}, clock, nil, zerolog.Nop())

	e := NewEvaluator(EvaluatorConfig{
		Source:   client,
		Display:  eng,
		Clock:    clock,
		Logger:   zerolog.Nop(),
		Location: "Raleigh, NC",
	})
	require.Equal(t, Evaluated, e.Tick(context.Background()))
	assert.Equal(t, render.Config{Mode: render.Flood, Fast: true, Base: render.Black, Highlight: render.DarkBlue}, eng.Config())
	assert.Equal(t, "RAH", e.Status().Grid.Office)
}
