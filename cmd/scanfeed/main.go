// Command scanfeed streams an alert feed from a file, stdin or URL through
// the hazard scanner and prints what the ring would show.
//
//	scanfeed alerts.json
//	curl -s https://api.weather.gov/alerts/active?area=NC | scanfeed -
//	scanfeed -full https://api.weather.gov/alerts/active?area=NC
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-pufflux/internal/app"
	"github.com/coreman2200/funtimes-pufflux/internal/command"
	"github.com/coreman2200/funtimes-pufflux/internal/scanner"
	"github.com/coreman2200/funtimes-pufflux/internal/weather"
)

func main() {
	var (
		full      = flag.Bool("full", false, "also parse the whole body and compare")
		limit     = flag.Int64("limit", 4<<20, "body limit for -full, bytes")
		userAgent = flag.String("user-agent", weather.DefaultUserAgent, "User-Agent for URL sources")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: scanfeed [-full] <file | - | url>")
		os.Exit(2)
	}
	src, err := open(flag.Arg(0), *userAgent)
	if err != nil {
		log.Fatal().Err(err).Str("source", flag.Arg(0)).Msg("open")
	}
	defer src.Close()

	var body bytes.Buffer
	r := io.Reader(src)
	if *full {
		r = io.TeeReader(src, &limitedWriter{w: &body, n: *limit})
	}

	sc := scanner.New()
	start := time.Now()
	if err := sc.Drain(r); err != nil {
		log.Error().Err(err).Msg("read failed; reporting what was scanned")
	}
	hz := sc.Result()
	cfg := app.ConfigFor(hz)
	log.Debug().Dur("took", time.Since(start)).Msg("scan complete")

	fmt.Printf("hazard   %s\n", hz)
	fmt.Printf("codes    %d in %d bytes\n", sc.Hits(), sc.Bytes())
	fmt.Printf("display  %s\n", cfg)
	fmt.Printf("command  %s\n", command.MustEncode(cfg))

	if *full {
		// token array sized from the kept body
		whole, err := weather.ParseAlerts(body.Bytes(), 0)
		if err != nil {
			log.Fatal().Err(err).Msg("full parse")
		}
		fmt.Printf("full     %s\n", whole)
		if whole.Significance != hz.Significance {
			log.Warn().Stringer("scan", hz).Stringer("full", whole).Msg("scanner and full parse disagree")
			os.Exit(1)
		}
	}
}

func open(arg, userAgent string) (io.ReadCloser, error) {
	switch {
	case arg == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		req, err := http.NewRequest(http.MethodGet, arg, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/geo+json")
		resp, err := (&http.Client{Timeout: weather.DefaultTimeout}).Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: %s", arg, resp.Status)
		}
		return resp.Body, nil
	default:
		return os.Open(arg)
	}
}

// limitedWriter keeps the first n bytes and silently drops the rest so the
// scan still sees the whole stream.
type limitedWriter struct {
	w io.Writer
	n int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n > 0 {
		k := min(int64(len(p)), l.n)
		if _, err := l.w.Write(p[:k]); err != nil {
			return 0, err
		}
		l.n -= k
	}
	return len(p), nil
}
