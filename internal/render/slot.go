package render

import "math"

// Epsilon is the channel distance treated as arrived. Such a channel is
// snapped onto the target so a settled slot compares equal.
const Epsilon = 1e-6

// Slot is one LED's interpolation state. Source is where Current stood
// when Target last changed, so every step of a transition has the same
// size.
type Slot struct {
	Current Color
	Target  Color
	Source  Color
}

// SetTarget aims the slot at c. Re-setting the same target leaves Source
// alone.
func (s *Slot) SetTarget(c Color) {
	if s.Target == c {
		return
	}
	s.Target = c
	s.Source = s.Current
}

// Step moves Current one linear step toward Target. in applies to rising
// channels and out to falling ones.
func (s *Slot) Step(in, out int) {
	s.Current.R = stepChannel(s.Current.R, s.Target.R, s.Source.R, in, out)
	s.Current.G = stepChannel(s.Current.G, s.Target.G, s.Source.G, in, out)
	s.Current.B = stepChannel(s.Current.B, s.Target.B, s.Source.B, in, out)
	if s.Current == s.Target {
		s.Source = s.Target
	}
}

func stepChannel(cur, tgt, src float64, in, out int) float64 {
	diff := tgt - cur
	if math.Abs(diff) < Epsilon {
		return tgt
	}
	steps := out
	if diff > 0 {
		steps = in
	}
	if steps < 1 {
		steps = 1
	}
	span := tgt - src
	// A Source that is nearer the target than Current, or on its far side,
	// would stall or reverse the step.
	if math.Abs(span) < math.Abs(diff) || (span > 0) != (diff > 0) {
		span = diff
	}
	step := span / float64(steps)
	if math.Abs(diff) <= math.Abs(step) {
		return tgt
	}
	return cur + step
}
