package scanner

import "github.com/coreman2200/funtimes-pufflux/internal/vtec"

// Window holds the most recent vtec.Width bytes of a stream. Pushing into a
// full window evicts the oldest byte.
type Window struct {
	buf  [vtec.Width]byte
	head int // index of the oldest byte
	n    int
}

// Push appends c, evicting the oldest byte when full.
func (w *Window) Push(c byte) {
	if w.n == len(w.buf) {
		w.buf[w.head] = c
		w.head++
		if w.head == len(w.buf) {
			w.head = 0
		}
		return
	}
	i := w.head + w.n
	if i >= len(w.buf) {
		i -= len(w.buf)
	}
	w.buf[i] = c
	w.n++
}

func (w *Window) Len() int   { return w.n }
func (w *Window) Full() bool { return w.n == len(w.buf) }

// At returns the i-th oldest byte.
func (w *Window) At(i int) byte {
	i += w.head
	if i >= len(w.buf) {
		i -= len(w.buf)
	}
	return w.buf[i]
}

// CopyTo writes the window contents oldest-first into dst and returns the
// number of bytes written.
func (w *Window) CopyTo(dst []byte) int {
	if w.n < len(w.buf) {
		return copy(dst, w.buf[w.head:w.head+w.n])
	}
	k := copy(dst, w.buf[w.head:])
	return k + copy(dst[k:], w.buf[:w.head])
}

// Reset empties the window.
func (w *Window) Reset() {
	w.head, w.n = 0, 0
}
