package sequence

import (
	"math"
	"sync"

	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

// NewPlayer constructs a Player with provided hooks.
func NewPlayer(h Hooks) *Player {
	return &Player{State: Idle, hooks: h}
}

// Load replaces the current program. Resets time and state to Idle.
func (p *Player) Load(prog Program) error {
	if err := prog.Validate(); err != nil {
		return err
	}
	p.prog = prog
	p.nowS = 0
	p.idx = 0
	p.State = Idle
	return nil
}

// Start moves to Running and shows the current clip.
func (p *Player) Start() {
	if p.State == Running || len(p.prog.Clips) == 0 {
		return
	}
	p.State = Running
	p.show()
}

// Pause pauses playback.
func (p *Player) Pause() { p.State = Paused }

// Resume resumes playback.
func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops and resets to start.
func (p *Player) Stop() {
	p.State = Idle
	p.nowS = 0
	p.idx = 0
}

// Seek jumps to absolute program time t. Clamps into [0, totalDur).
func (p *Player) Seek(t float64) {
	if len(p.prog.Clips) == 0 {
		return
	}
	if t < 0 {
		t = 0
	}
	total := p.totalDuration()
	if total > 0 && t >= total {
		t = math.Nextafter(total, -1)
	}
	acc := 0.0
	idx := 0
	for i, c := range p.prog.Clips {
		if t < acc+c.DurationS {
			idx = i
			break
		}
		acc += c.DurationS
	}
	p.idx = idx
	p.nowS = t
	p.show()
}

// Current is the clip being shown.
func (p *Player) Current() (Clip, bool) {
	if len(p.prog.Clips) == 0 {
		return Clip{}, false
	}
	return p.prog.Clips[p.idx], true
}

// Tick advances the sequencer by dt seconds and emits control hooks.
func (p *Player) Tick(dt float64) {
	if p.State != Running || len(p.prog.Clips) == 0 || dt <= 0 {
		return
	}
	p.nowS += dt

	clip, localT := p.currentClipAndLocalT()
	if p.hooks.SetParam != nil {
		for name, env := range clip.Params {
			p.hooks.SetParam(name, env.Eval(localT))
		}
	}
	// a long dt may cross several short clips
	for p.State == Running && localT >= clip.DurationS {
		p.advanceClip()
		clip, localT = p.currentClipAndLocalT()
	}
}

func (p *Player) show() {
	if p.hooks.Show == nil {
		return
	}
	c := p.prog.Clips[p.idx]
	p.hooks.Show(c.Name, c.Hazard())
}

func (p *Player) currentClipAndLocalT() (Clip, float64) {
	acc := 0.0
	for i := 0; i < p.idx; i++ {
		acc += p.prog.Clips[i].DurationS
	}
	return p.prog.Clips[p.idx], p.nowS - acc
}

func (p *Player) totalDuration() float64 {
	total := 0.0
	for _, c := range p.prog.Clips {
		total += c.DurationS
	}
	return total
}

func (p *Player) nextIndex() int {
	ni := p.idx + 1
	if ni >= len(p.prog.Clips) {
		if p.prog.Loop {
			return 0
		}
		return -1
	}
	return ni
}

func (p *Player) advanceClip() {
	next := p.nextIndex()
	if next == -1 {
		p.State = Idle
		return
	}
	if next == 0 {
		// looped: rebase time so clip offsets stay small
		p.nowS -= p.totalDuration()
	}
	p.idx = next
	p.show()
}

// Demo cycles every category as a warning, then as a watch, then ends on
// the idle animation. Each entry holds for holdS seconds.
func Demo(holdS float64) Program {
	codes := map[vtec.Category]string{}
	for code, c := range vtec.PhenomenonCodes() {
		if prev, ok := codes[c]; !ok || code < prev {
			codes[c] = code
		}
	}
	prog := Program{Version: "seq.v1", Loop: true}
	for _, sig := range []string{"W", "A"} {
		for _, c := range vtec.Categories() {
			prog.Clips = append(prog.Clips, Clip{
				Name:         c.String() + "." + sig,
				Phenomenon:   codes[c],
				Significance: sig,
				DurationS:    holdS,
			})
		}
	}
	prog.Clips = append(prog.Clips, Clip{Name: "idle", DurationS: holdS})
	return prog
}

// SafePlayer serializes access to a Player shared between the render loop
// and the status server.
type SafePlayer struct {
	mu sync.Mutex
	P  *Player
}

func NewSafePlayer(h Hooks) *SafePlayer {
	return &SafePlayer{P: NewPlayer(h)}
}

func (s *SafePlayer) With(f func(p *Player)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.P)
}
