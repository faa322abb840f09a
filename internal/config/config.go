// Package config loads the daemon's YAML configuration and the small state
// file that remembers resolved coordinates between restarts.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-pufflux/internal/led"
	"github.com/coreman2200/funtimes-pufflux/internal/selftest"
	"github.com/coreman2200/funtimes-pufflux/internal/weather"
)

type Location struct {
	// Text is geocoded once unless Lat and Lon are set.
	Text string `yaml:"text"`
	Lat  string `yaml:"lat,omitempty"`
	Lon  string `yaml:"lon,omitempty"`
}

type Weather struct {
	PollMinutes int           `yaml:"poll_minutes"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	GeocodeURL  string        `yaml:"geocode_url,omitempty"`
	WeatherURL  string        `yaml:"weather_url,omitempty"`
}

type PowerCfg struct {
	BudgetMilliA  float64 `yaml:"budget_ma"`
	ChannelMilliA float64 `yaml:"channel_ma"`
	WhiteCap      float64 `yaml:"white_cap"` // max R+G+B per LED in [0,3], 0 disables
	Knee          float64 `yaml:"knee"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. SPI0.0, "" for the first port
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
	ResetUs int    `yaml:"reset_us"` // e.g. 300
}

type LED struct {
	Count      int     `yaml:"count"`
	Offset     int     `yaml:"offset"`
	Reverse    bool    `yaml:"reverse"`
	Driver     string  `yaml:"driver"` // periph | spi | term | console | sim
	ColorOrder string  `yaml:"color_order"`
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`
	SelfTest   string  `yaml:"self_test,omitempty"`

	Power PowerCfg `yaml:"power"`
	SPI   SPI      `yaml:"spi,omitempty"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

type Config struct {
	Location  Location `yaml:"location"`
	Weather   Weather  `yaml:"weather"`
	Interface string   `yaml:"interface,omitempty"`
	LED       LED      `yaml:"led"`
	HTTPAddr  string   `yaml:"http_addr"`
	Log       Log      `yaml:"log"`
	StateFile string   `yaml:"state_file,omitempty"`
	// Demo cycles the built-in playlist instead of polling.
	Demo bool `yaml:"demo"`
}

// Default is the reference build: a 68 LED ring polled every 5 minutes.
func Default() *Config {
	return &Config{
		Weather: Weather{
			PollMinutes: 5,
			UserAgent:   weather.DefaultUserAgent,
			Timeout:     weather.DefaultTimeout,
		},
		LED: LED{
			Count:      68,
			Driver:     led.KindSim,
			ColorOrder: "GRB",
			Brightness: 1,
			FPS:        60,
			Power: PowerCfg{
				ChannelMilliA: 20,
				Knee:          0.9,
			},
			SPI: SPI{SpeedHz: led.DefaultSPISpeedHz, ResetUs: led.DefaultResetUs},
		},
		HTTPAddr: ":8080",
		Log:      Log{Level: "info", Format: "console"},
	}
}

// Load reads path over Default, so a file may set only what it changes.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// PollInterval is the wait between successful evaluations.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Weather.PollMinutes) * time.Minute
}

// FixedCoordinates returns configured coordinates, if both are set.
func (c *Config) FixedCoordinates() (weather.Coordinates, bool) {
	if c.Location.Lat == "" || c.Location.Lon == "" {
		return weather.Coordinates{}, false
	}
	return weather.Coordinates{Lat: c.Location.Lat, Lon: c.Location.Lon}, true
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	_, fixed := c.FixedCoordinates()
	if !fixed && c.Location.Text == "" && !c.Demo {
		bad("location: text or lat/lon required")
	}
	if (c.Location.Lat == "") != (c.Location.Lon == "") {
		bad("location: lat and lon must be set together")
	}
	for name, v := range map[string]string{"lat": c.Location.Lat, "lon": c.Location.Lon} {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			bad("location.%s: %q is not a number", name, v)
		}
	}
	if c.Weather.PollMinutes <= 0 {
		bad("weather.poll_minutes: must be positive, got %d", c.Weather.PollMinutes)
	}
	if c.Weather.Timeout < 0 {
		bad("weather.timeout: must not be negative")
	}
	if c.LED.Count <= 0 {
		bad("led.count: must be positive, got %d", c.LED.Count)
	}
	if !slices.Contains(led.Kinds(), c.LED.Driver) {
		bad("led.driver: %q is not one of %v", c.LED.Driver, led.Kinds())
	}
	if _, err := led.ParseOrder(c.LED.ColorOrder); err != nil {
		bad("led.color_order: %v", err)
	}
	if c.LED.Brightness < 0 || c.LED.Brightness > 1 {
		bad("led.brightness: %v outside [0,1]", c.LED.Brightness)
	}
	if c.LED.FPS <= 0 || c.LED.FPS > 240 {
		bad("led.fps: %d outside 1..240", c.LED.FPS)
	}
	if c.LED.SelfTest != "" {
		if _, err := selftest.ParseKind(c.LED.SelfTest); err != nil {
			bad("led.self_test: %v", err)
		}
	}
	if p := c.LED.Power; p.Knee < 0 || p.Knee > 1 || p.WhiteCap < 0 || p.WhiteCap > 3 || p.BudgetMilliA < 0 {
		bad("led.power: want knee in [0,1], white_cap in [0,3] and a non-negative budget")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		bad("log.format: %q is not console or json", c.Log.Format)
	}
	return errors.Join(errs...)
}
