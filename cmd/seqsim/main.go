// Command seqsim plays a hazard Program headless and prints each clip
// change with the display config and command word it produces.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-pufflux/internal/app"
	"github.com/coreman2200/funtimes-pufflux/internal/command"
	"github.com/coreman2200/funtimes-pufflux/internal/sequence"
	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

func main() {
	var (
		programPath = flag.String("program", "", "Program file (.json or .yaml); empty plays the demo")
		hold        = flag.Float64("hold", app.DemoHoldS, "demo seconds per clip")
		fps         = flag.Int("fps", 60, "simulation frames per second")
		realtime    = flag.Bool("realtime", false, "tick on the wall clock instead of as fast as possible")
		loops       = flag.Int("loops", 1, "passes through a looping program before exiting")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	prog := sequence.Demo(*hold)
	if *programPath != "" {
		p, err := readProgram(*programPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *programPath).Msg("read program")
		}
		prog = p
	}

	var (
		shown int
		t     float64
	)
	h := sequence.Hooks{
		Show: func(name string, hz vtec.Classification) {
			cfg := app.ConfigFor(hz)
			fmt.Printf("%8.2fs  %-22s %-24s %s  %s\n", t, name, hz, command.MustEncode(cfg), cfg)
			shown++
		},
		SetParam: func(name string, v float64) {
			log.Debug().Str("param", name).Float64("v", v).Msg("param")
		},
	}
	player := sequence.NewPlayer(h)
	if err := player.Load(prog); err != nil {
		log.Fatal().Err(err).Msg("load")
	}
	player.Start()

	dt := time.Second / time.Duration(*fps)
	var tick <-chan time.Time
	if *realtime {
		ticker := time.NewTicker(dt)
		defer ticker.Stop()
		tick = ticker.C
	}
	limit := len(prog.Clips) * *loops
	for player.State != sequence.Idle && shown <= limit {
		if tick != nil {
			<-tick
		}
		player.Tick(dt.Seconds())
		t += dt.Seconds()
	}
	log.Info().Float64("t", t).Int("clips", shown).Msg("done")
}

func readProgram(path string) (sequence.Program, error) {
	var p sequence.Program
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &p)
	default:
		err = json.Unmarshal(b, &p)
	}
	return p, err
}
