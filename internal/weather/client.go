// Package weather talks to the geocoder and the National Weather Service
// API. Small responses are buffered and walked with jsontok; the alert feed
// is streamed through the hazard scanner.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-pufflux/internal/observability"
	"github.com/coreman2200/funtimes-pufflux/internal/scanner"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

const (
	DefaultGeocodeURL = "https://geocode.arcgis.com"
	DefaultWeatherURL = "https://api.weather.gov"
	DefaultUserAgent  = "pufflux (github.com/coreman2200/funtimes-pufflux)"
	DefaultTimeout    = 20 * time.Second

	geocodePath = "/arcgis/rest/services/World/GeocodeServer/find"
)

// Endpoint labels for metrics and logs.
const (
	EndpointGeocode = "geocode"
	EndpointPoints  = "points"
	EndpointAlerts  = "alerts"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Endpoint, e.Code, http.StatusText(e.Code))
}

// Options configures a Client. Zero fields take the Default values.
type Options struct {
	GeocodeURL string
	WeatherURL string
	UserAgent  string
	Timeout    time.Duration
	BodyLimit  int64
}

// Client resolves a location and fetches its active hazard.
type Client struct {
	httpClient *http.Client
	geocodeURL string
	weatherURL string
	userAgent  string
	bodyLimit  int64
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewClient creates a weather client.
func NewClient(opts Options, clock clockwork.Clock, metrics *observability.Metrics, logger zerolog.Logger) *Client {
	if opts.GeocodeURL == "" {
		opts.GeocodeURL = DefaultGeocodeURL
	}
	if opts.WeatherURL == "" {
		opts.WeatherURL = DefaultWeatherURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		geocodeURL: strings.TrimRight(opts.GeocodeURL, "/"),
		weatherURL: strings.TrimRight(opts.WeatherURL, "/"),
		userAgent:  opts.UserAgent,
		bodyLimit:  opts.BodyLimit,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves free text such as "Raleigh, NC" to coordinates.
func (c *Client) Geocode(ctx context.Context, text string) (Coordinates, error) {
	q := url.Values{"f": {"json"}, "text": {text}}
	u := c.geocodeURL + geocodePath + "?" + q.Encode()

	var coords Coordinates
	err := c.fetch(ctx, EndpointGeocode, u, func(body io.Reader) error {
		b, err := ReadBody(body, c.bodyLimit)
		if err != nil {
			return err
		}
		coords, err = ParseGeocode(b)
		return err
	})
	if err != nil {
		return Coordinates{}, err
	}
	c.logger.Info().Str("location", text).Str("lat", coords.Lat).Str("lon", coords.Lon).Msg("resolved location")
	return coords, nil
}

// ResolveGrid finds the forecast grid cell containing coords.
func (c *Client) ResolveGrid(ctx context.Context, coords Coordinates) (Grid, error) {
	t := coords.Truncated()
	u := c.weatherURL + "/points/" + t.Lat + "," + t.Lon

	var g Grid
	err := c.fetch(ctx, EndpointPoints, u, func(body io.Reader) error {
		b, err := ReadBody(body, c.bodyLimit)
		if err != nil {
			return err
		}
		g, err = ParseGrid(b)
		return err
	})
	if err != nil {
		return Grid{}, err
	}
	c.logger.Info().Str("office", g.Office).Str("x", g.X).Str("y", g.Y).Msg("resolved grid")
	return g, nil
}

// ActiveHazard streams the active alerts for coords and returns the most
// significant hazard. An empty feed yields vtec.None.
func (c *Client) ActiveHazard(ctx context.Context, coords Coordinates) (vtec.Classification, error) {
	t := coords.Truncated()
	u := c.weatherURL + "/alerts/active?point=" + t.Lat + "%2C" + t.Lon

	var (
		sc scanner.Scanner
		hz vtec.Classification
	)
	err := c.fetch(ctx, EndpointAlerts, u, func(body io.Reader) error {
		err := sc.Drain(body)
		if c.metrics != nil {
			c.metrics.BytesScanned.Add(float64(sc.Bytes()))
		}
		hz = sc.Result()
		if err != nil {
			return fmt.Errorf("read alerts: %w", err)
		}
		return nil
	})
	if err != nil {
		return vtec.None, err
	}
	c.logger.Debug().
		Int64("bytes", sc.Bytes()).
		Int("codes", sc.Hits()).
		Stringer("hazard", hz).
		Msg("scanned alerts")
	return hz, nil
}

// fetch issues a GET and hands a 2xx body to consume. Outcomes and timings
// are recorded per endpoint.
func (c *Client) fetch(ctx context.Context, endpoint, u string, consume func(io.Reader) error) error {
	start := c.clock.Now()
	err := c.do(ctx, endpoint, u, consume)
	c.observe(endpoint, start, err)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("fetch failed")
	}
	return err
}

func (c *Client) do(ctx context.Context, endpoint, u string, consume func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.bodyLimit))
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	if err := consume(resp.Body); err != nil {
		return fmt.Errorf("%s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case IsDecode(err):
		outcome = "decode"
	default:
		outcome = "transport"
	}
	c.metrics.FetchRequests.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.FetchDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())
}
