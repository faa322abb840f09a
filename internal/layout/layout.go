// Package layout maps logical ring slots onto physical LED positions.
package layout

// Ring describes how a strip is wound into a circle. Slot 0 is the top of
// the ring; Offset is the physical index of that LED and Reverse means the
// strip runs counter-clockwise.
type Ring struct {
	Count   int
	Offset  int
	Reverse bool
}

// Index maps slot i (0..Count-1) to a linear LED index.
func (r Ring) Index(i int) int {
	if r.Count <= 0 {
		return i
	}
	if r.Reverse {
		i = -i
	}
	return mod(i+r.Offset, r.Count)
}

func (r Ring) Len() int { return r.Count }

// Identity reports whether Index is a no-op.
func (r Ring) Identity() bool {
	return r.Count <= 1 || (!r.Reverse && mod(r.Offset, r.Count) == 0)
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
