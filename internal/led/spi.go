package led

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

const (
	DefaultSPISpeedHz = 2_400_000
	DefaultResetUs    = 300
)

// SPI drives a WS2812 strip through a periph SPI port with the built-in
// 3-bit encoder.
type SPI struct {
	mu    sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
	enc   *Encoder
	count int
	buf   []byte
}

// OpenSPI opens the named port ("" for the first available).
func OpenSPI(dev string, count int, order Order, speedHz, resetUs int) (*SPI, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	s, err := NewSPI(p, count, order, speedHz, resetUs)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI connects to an already opened port. speedHz in the 2.4–3.2 MHz
// range suits the encoding; resetUs is the latch time (>= 280µs).
func NewSPI(p spi.PortCloser, count int, order Order, speedHz, resetUs int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if speedHz <= 0 {
		speedHz = DefaultSPISpeedHz
	}
	if resetUs <= 0 {
		resetUs = DefaultResetUs
	}
	c, err := p.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spi connect: %w", err)
	}
	enc := NewEncoder(order, ResetBytes(speedHz, resetUs))
	return &SPI{
		port:  p,
		conn:  c,
		enc:   enc,
		count: count,
		buf:   make([]byte, 0, enc.Len(count)),
	}, nil
}

func (s *SPI) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.New("spi closed")
	}
	if err := checkLen(rgb, s.count); err != nil {
		return err
	}
	s.buf = s.enc.Encode(s.buf[:0], rgb)
	if err := s.conn.Tx(s.buf, nil); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port, s.conn = nil, nil
	return err
}
