// Package selftest drives fixed wiring patterns straight to the strip,
// bypassing the engine.
package selftest

import "fmt"

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	// Orientation lights logical slots in order through the ring mapping so
	// offset and direction can be checked by eye.
	Orientation Kind = "orientation"
)

// Kinds lists the runnable tests.
func Kinds() []Kind { return []Kind{IndexSweep, RGBTest, Orientation} }

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown self test %q", s)
}

// Mapper maps a logical slot to a physical LED index.
type Mapper interface {
	Index(i int) int
}

type Plan struct {
	Kind Kind
	// Hold repeats each step for this many frames; zero means 1.
	Hold int
}

type Runner struct {
	plan  Plan
	step  int
	frame int
}

func NewRunner(plan Plan) *Runner {
	if plan.Hold <= 0 {
		plan.Hold = 1
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Steps is the number of distinct patterns for an n-LED strip.
func (r *Runner) Steps(n int) int {
	switch r.plan.Kind {
	case IndexSweep, Orientation:
		return n
	case RGBTest:
		return 3
	default:
		return 0
	}
}

// Step fills rgb for the next frame; returns false when complete. m may be
// nil for an identity mapping.
func (r *Runner) Step(m Mapper, rgb []byte) bool {
	n := len(rgb) / 3
	clear(rgb)
	if r.step >= r.Steps(n) {
		return false
	}

	switch r.plan.Kind {
	case IndexSweep:
		set(rgb, r.step, 255, 255, 255)
	case RGBTest:
		for i := 0; i < n; i++ {
			rgb[i*3+r.step] = 255
		}
	case Orientation:
		// slot 0 stays red as a marker; the sweep is green
		set(rgb, index(m, 0), 255, 0, 0)
		if r.step > 0 {
			set(rgb, index(m, r.step), 0, 255, 0)
		}
	}

	r.frame++
	if r.frame == r.plan.Hold {
		r.frame = 0
		r.step++
	}
	return true
}

func index(m Mapper, i int) int {
	if m == nil {
		return i
	}
	return m.Index(i)
}

func set(rgb []byte, i int, r, g, b byte) {
	if i < 0 || 3*i+2 >= len(rgb) {
		return
	}
	rgb[3*i], rgb[3*i+1], rgb[3*i+2] = r, g, b
}
