package sequence

import (
	"fmt"

	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

// Keyframe represents a value at time T (seconds) with an easing function
// that applies to the segment starting at this keyframe.
type Keyframe struct {
	T    float64 `json:"t" yaml:"t"`
	V    float64 `json:"v" yaml:"v"`
	Ease string  `json:"ease,omitempty" yaml:"ease,omitempty"` // "linear","smooth","cubic"
}

// Envelope is a sorted list of keyframes; Eval(t) interpolates a value.
type Envelope struct {
	Keys []Keyframe `json:"keys" yaml:"keys"`
}

// Clip shows one hazard for DurationS seconds. Phenomenon and Significance
// are the P-VTEC letters, e.g. "FL" and "W".
type Clip struct {
	Name         string              `json:"name" yaml:"name"`
	Phenomenon   string              `json:"phenomenon" yaml:"phenomenon"`
	Significance string              `json:"significance" yaml:"significance"`
	DurationS    float64             `json:"durationS" yaml:"duration_s"`
	Params       map[string]Envelope `json:"params,omitempty" yaml:"params,omitempty"` // e.g. "brightness"
}

// Hazard decodes the clip's letters. Unknown letters give unknown halves,
// which render as the idle animation.
func (c Clip) Hazard() vtec.Classification {
	var s vtec.Significance
	if len(c.Significance) == 1 {
		s = vtec.SignificanceOf(c.Significance[0])
	}
	return vtec.Classification{Category: vtec.CategoryOf(c.Phenomenon), Significance: s}
}

// Program is a full sequence of clips.
type Program struct {
	Version string `json:"version" yaml:"version"` // e.g., "seq.v1"
	Loop    bool   `json:"loop,omitempty" yaml:"loop,omitempty"`
	Clips   []Clip `json:"clips" yaml:"clips"`
}

func (p Program) Validate() error {
	if len(p.Clips) == 0 {
		return fmt.Errorf("program has no clips")
	}
	for i, c := range p.Clips {
		if c.DurationS <= 0 {
			return fmt.Errorf("clip %d (%s): duration must be positive", i, c.Name)
		}
	}
	return nil
}

// PlayerState enumerates sequencer states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are dependency-injected callbacks into the display.
type Hooks struct {
	// Show switches the display to a hazard immediately.
	Show func(name string, hz vtec.Classification)
	// SetParam receives automated values for the active clip.
	SetParam func(name string, v float64)
}

// Player owns the current Program timeline and uses Hooks to drive the display.
type Player struct {
	State PlayerState

	prog Program
	nowS float64 // position within program
	idx  int     // current clip index

	hooks Hooks
}
