// Command pufflux runs the weather ring: it polls active alerts for one
// location and animates the most severe hazard on an LED ring.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pufflux/internal/app"
	"github.com/coreman2200/funtimes-pufflux/internal/config"
	"github.com/coreman2200/funtimes-pufflux/internal/led"
	"github.com/coreman2200/funtimes-pufflux/internal/observability"
)

func main() {
	// ---- Flags (explicitly set flags win over config.yaml) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		location   = flag.String("location", "", `location to geocode, e.g. "Raleigh, NC"`)
		lat        = flag.String("lat", "", "fixed latitude (skips geocoding)")
		lon        = flag.String("lon", "", "fixed longitude (skips geocoding)")
		count      = flag.Int("count", 68, "LEDs on the ring")
		driver     = flag.String("driver", led.KindSim, "driver: periph | spi | term | console | sim")
		fps        = flag.Int("fps", 60, "target frames per second")
		brightness = flag.Float64("brightness", 1, "global brightness 0..1")
		addr       = flag.String("addr", ":8080", "HTTP listen address, empty to disable")
		logLevel   = flag.String("log-level", "info", "log level")
		logFormat  = flag.String("log-format", "console", "log format: console | json")
		selfTest   = flag.String("self-test", "", "run a self test at startup: index_sweep | rgb_channels | orientation")
		demo       = flag.Bool("demo", false, "cycle every hazard instead of polling")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
	)
	flag.Parse()

	// ---- Early logging, replaced once config is known ----
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", *configPath).Msg("no config file; using defaults and flags")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "location":
			cfg.Location.Text = *location
		case "lat":
			cfg.Location.Lat = *lat
		case "lon":
			cfg.Location.Lon = *lon
		case "count":
			cfg.LED.Count = *count
		case "driver":
			cfg.LED.Driver = *driver
		case "fps":
			cfg.LED.FPS = *fps
		case "brightness":
			cfg.LED.Brightness = *brightness
		case "addr":
			cfg.HTTPAddr = *addr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "self-test":
			cfg.LED.SelfTest = *selfTest
		case "demo":
			cfg.Demo = *demo
		}
	})
	if *simOnly {
		cfg.LED.Driver = led.KindSim
	}

	// ---- Logging ----
	logger, err := observability.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	if cfg.LED.Driver == led.KindTerm {
		// the terminal belongs to the ring preview
		logger = logger.Level(zerolog.Disabled)
	}
	log.Logger = logger

	// ---- Build ----
	core, err := app.InitCore(cfg, app.Deps{
		Metrics: observability.NewMetrics(),
		Logger:  logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	log.Info().
		Str("location", cfg.Location.Text).
		Str("driver", core.DriverKind).
		Int("count", cfg.LED.Count).
		Bool("demo", cfg.Demo).
		Msg("pufflux starting")

	// ---- Run until signalled ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := core.Run(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	log.Info().Msg("shutting down")
	if err := core.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}
