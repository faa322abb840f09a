package led

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Term draws the ring as a circle of cells in a terminal.
type Term struct {
	mu     sync.Mutex
	screen tcell.Screen
	count  int
	pos    []cell
	w, h   int
}

type cell struct{ x, y int }

// OpenTerm takes over the controlling terminal.
func OpenTerm(count int) (*Term, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return NewTerm(s, count), nil
}

// NewTerm draws on an initialized screen.
func NewTerm(s tcell.Screen, count int) *Term {
	t := &Term{screen: s, count: count}
	s.HideCursor()
	s.Clear()
	t.layout()
	return t
}

// layout places LED i at angle 2πi/n, starting at the top and running
// clockwise. Terminal cells are about twice as tall as wide.
func (t *Term) layout() {
	t.w, t.h = t.screen.Size()
	ry := float64(t.h/2 - 1)
	rx := math.Min(float64(t.w/2-2), 2*ry)
	ry = rx / 2
	cx, cy := t.w/2, t.h/2

	t.pos = make([]cell, t.count)
	for i := range t.pos {
		a := 2*math.Pi*float64(i)/float64(t.count) - math.Pi/2
		t.pos[i] = cell{
			x: cx + int(math.Round(rx*math.Cos(a))),
			y: cy + int(math.Round(ry*math.Sin(a))),
		}
	}
}

func (t *Term) Write(rgb []byte) error {
	if err := checkLen(rgb, t.count); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, h := t.screen.Size(); w != t.w || h != t.h {
		t.screen.Clear()
		t.layout()
	}
	for i, p := range t.pos {
		c := tcell.NewRGBColor(int32(rgb[3*i]), int32(rgb[3*i+1]), int32(rgb[3*i+2]))
		t.screen.SetContent(p.x, p.y, '●', nil, tcell.StyleDefault.Foreground(c))
	}
	t.screen.Show()
	return nil
}

func (t *Term) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
	return nil
}
