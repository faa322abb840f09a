package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// DefaultNRZFreq is the WS2812 data rate.
const DefaultNRZFreq = 800 * physic.KiloHertz

// NRZ drives a strip with periph's nrzled device, which emits GRB on the
// wire. Other orders are pre-permuted so the strip still sees them.
type NRZ struct {
	mu    sync.Mutex
	port  spi.PortCloser
	dev   *nrzled.Dev
	count int
	order Order
	buf   []byte
}

// OpenNRZ opens the named SPI port. freqHz <= 0 selects DefaultNRZFreq.
func OpenNRZ(dev string, count int, order Order, freqHz int) (*NRZ, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	freq := DefaultNRZFreq
	if freqHz > 0 {
		freq = physic.Frequency(freqHz) * physic.Hertz
	}
	d, err := NewNRZ(p, count, order, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return d, nil
}

func NewNRZ(p spi.PortCloser, count int, order Order, freq physic.Frequency) (*NRZ, error) {
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	return &NRZ{port: p, dev: d, count: count, order: order, buf: make([]byte, 3*count)}, nil
}

// wire maps the wanted wire order onto nrzled's fixed GRB output.
func (n *NRZ) wire(dst []byte, r, g, b byte) {
	var w [3]byte
	n.order.Apply(w[:], r, g, b)
	// nrzled sends input[1], input[0], input[2]
	dst[0], dst[1], dst[2] = w[1], w[0], w[2]
}

func (n *NRZ) Write(rgb []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := checkLen(rgb, n.count); err != nil {
		return err
	}
	for i := 0; i < n.count; i++ {
		n.wire(n.buf[3*i:], rgb[3*i], rgb[3*i+1], rgb[3*i+2])
	}
	if _, err := n.dev.Write(n.buf); err != nil {
		return fmt.Errorf("nrzled write: %w", err)
	}
	return nil
}

func (n *NRZ) String() string { return n.dev.String() }

func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.port == nil {
		return nil
	}
	_ = n.dev.Halt()
	err := n.port.Close()
	n.port = nil
	return err
}
