// Package led holds the output sinks for packed RGB frames: WS2812 strips
// over SPI (periph nrzled or the built-in 3-bit encoder), a terminal ring
// preview, a console strip and a no-op simulator.
package led

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"periph.io/x/host/v3"
)

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Driver kinds accepted by Open.
const (
	KindPeriph  = "periph"
	KindSPI     = "spi"
	KindTerm    = "term"
	KindConsole = "console"
	KindSim     = "sim"
)

// Kinds lists the accepted driver names.
func Kinds() []string { return []string{KindPeriph, KindSPI, KindTerm, KindConsole, KindSim} }

// Options selects and configures a driver.
type Options struct {
	Kind       string
	Count      int
	Device     string // SPI port name, "" for the first one
	SpeedHz    int
	ResetUs    int
	ColorOrder string
}

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Open builds the driver named by o.Kind.
func Open(o Options, logger zerolog.Logger) (Driver, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("led: invalid count %d", o.Count)
	}
	order, err := ParseOrder(o.ColorOrder)
	if err != nil {
		return nil, err
	}
	switch o.Kind {
	case KindSim, "":
		return NewSim(o.Count, logger), nil
	case KindTerm:
		return OpenTerm(o.Count)
	case KindConsole:
		return NewConsole(o.Count), nil
	case KindSPI:
		return OpenSPI(o.Device, o.Count, order, o.SpeedHz, o.ResetUs)
	case KindPeriph:
		return OpenNRZ(o.Device, o.Count, order, o.SpeedHz)
	default:
		return nil, fmt.Errorf("led: unknown driver %q", o.Kind)
	}
}

func checkLen(rgb []byte, count int) error {
	if len(rgb) != count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), count)
	}
	return nil
}
