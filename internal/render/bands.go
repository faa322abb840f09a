package render

// Band values index the {black, base, highlight} triple.
const (
	bandOff uint8 = iota
	bandEdge
	bandInner
)

// floodBands puts an edge and an inner band at both ends of the ring, two
// fronts that converge as the halves rotate toward each other.
func floodBands(n int) []uint8 {
	b := make([]uint8, n)
	set := func(i int, v uint8) {
		if i >= 0 && i < n {
			b[i] = v
		}
	}
	for i := 0; i < 8; i++ {
		set(i, bandEdge)
		set(n-1-i, bandEdge)
	}
	for i := 8; i < 16; i++ {
		set(i, bandInner)
		set(n-1-i, bandInner)
	}
	return b
}

// swirlBands is a single arc at the start of the ring.
func swirlBands(n int) []uint8 {
	b := make([]uint8, n)
	for i := 0; i < 16 && i < n; i++ {
		if i < 9 {
			b[i] = bandEdge
		} else {
			b[i] = bandInner
		}
	}
	return b
}

// [a b c d] -> [d a b c]
func rotateRight(b []uint8) {
	if len(b) < 2 {
		return
	}
	tail := b[len(b)-1]
	copy(b[1:], b[:len(b)-1])
	b[0] = tail
}

// [a b c d] -> [b c d a]
func rotateLeft(b []uint8) {
	if len(b) < 2 {
		return
	}
	head := b[0]
	copy(b, b[1:])
	b[len(b)-1] = head
}

// rotateFlood moves the first half toward higher indices and the second
// half toward lower ones. With an odd count the last LED stays put.
func rotateFlood(b []uint8) {
	half := len(b) / 2
	rotateRight(b[:half])
	rotateLeft(b[half : 2*half])
}
