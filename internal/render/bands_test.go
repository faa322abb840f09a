package render

import (
	"slices"
	"testing"
)

func counts(b []uint8) [3]int {
	var c [3]int
	for _, v := range b {
		c[v]++
	}
	return c
}

func TestFloodBandsReference(t *testing.T) {
	b := floodBands(DefaultCount)
	for i, v := range b {
		var want uint8
		switch {
		case i < 8 || i >= 60:
			want = bandEdge
		case i < 16 || i >= 52:
			want = bandInner
		}
		if v != want {
			t.Fatalf("flood band %d = %d, want %d", i, v, want)
		}
	}
}

func TestSwirlBandsReference(t *testing.T) {
	b := swirlBands(DefaultCount)
	if got := counts(b); got != [3]int{DefaultCount - 16, 9, 7} {
		t.Fatalf("swirl band counts %v", got)
	}
	if b[8] != bandEdge || b[9] != bandInner || b[16] != bandOff {
		t.Fatalf("swirl boundaries wrong: %v", b[:17])
	}
}

func TestSwirlRotationIsPermutation(t *testing.T) {
	for _, n := range []int{1, 2, 5, 16, DefaultCount, 101} {
		b := swirlBands(n)
		orig := slices.Clone(b)
		want := counts(b)
		for i := 0; i < n; i++ {
			rotateRight(b)
			if counts(b) != want {
				t.Fatalf("n=%d: multiset changed after %d rotations", n, i+1)
			}
		}
		if !slices.Equal(b, orig) {
			t.Fatalf("n=%d: not restored after a full turn", n)
		}
	}
}

func TestFloodRotationRestoresPerHalf(t *testing.T) {
	for _, n := range []int{4, 33, DefaultCount, 100} {
		b := floodBands(n)
		orig := slices.Clone(b)
		want := counts(b)
		half := n / 2
		for i := 0; i < half; i++ {
			rotateFlood(b)
			if counts(b) != want {
				t.Fatalf("n=%d: multiset changed", n)
			}
		}
		if !slices.Equal(b, orig) {
			t.Fatalf("n=%d: halves not restored after %d rotations", n, half)
		}
	}
}

func TestRotateDirections(t *testing.T) {
	b := []uint8{1, 2, 0, 0}
	rotateRight(b)
	if !slices.Equal(b, []uint8{0, 1, 2, 0}) {
		t.Fatalf("right: %v", b)
	}
	rotateLeft(b)
	rotateLeft(b)
	if !slices.Equal(b, []uint8{2, 0, 0, 1}) {
		t.Fatalf("left: %v", b)
	}

	// Flood halves converge on the middle.
	f := []uint8{1, 0, 0, 0, 0, 0, 0, 2}
	rotateFlood(f)
	if !slices.Equal(f, []uint8{0, 1, 0, 0, 0, 0, 2, 0}) {
		t.Fatalf("flood: %v", f)
	}
}
