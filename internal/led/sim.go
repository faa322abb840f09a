package led

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Sim discards frames, keeping the last one and a count. Every 300th
// frame is summarized at debug level.
type Sim struct {
	mu     sync.Mutex
	count  int
	frames int
	last   []byte
	logger zerolog.Logger
}

func NewSim(count int, logger zerolog.Logger) *Sim {
	return &Sim{count: count, last: make([]byte, 3*count), logger: logger}
}

func (s *Sim) Write(rgb []byte) error {
	if err := checkLen(rgb, s.count); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.last, rgb)
	s.frames++
	if s.frames%300 == 1 {
		var r, g, b int
		for i := 0; i < len(rgb); i += 3 {
			r += int(rgb[i])
			g += int(rgb[i+1])
			b += int(rgb[i+2])
		}
		s.logger.Debug().
			Int("frame", s.frames).
			Ints("avg", []int{r / s.count, g / s.count, b / s.count}).
			Ints("first", []int{int(rgb[0]), int(rgb[1]), int(rgb[2])}).
			Msg("sim frame")
	}
	return nil
}

// Frames counts writes.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Last is a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.last)
}

func (s *Sim) Close() error { return nil }
