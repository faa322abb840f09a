// Package scanner finds the most severe P-VTEC hazard in a byte stream of
// any length using a fixed window, without buffering the stream.
package scanner

import (
	"errors"
	"io"

	"github.com/coreman2200/funtimes-pufflux/internal/vtec"
)

// ReadSize is the chunk Scan pulls from its reader per call.
const ReadSize = 512

// Scanner consumes bytes one at a time and keeps the worst hazard seen.
// The zero value is ready to use.
type Scanner struct {
	win     Window
	scratch [vtec.Width]byte
	best    vtec.Classification
	hits    int
	n       int64
}

// New returns an empty Scanner.
func New() *Scanner { return &Scanner{} }

// WriteByte slides c into the window and tries one decode at the new
// position. It never fails.
func (s *Scanner) WriteByte(c byte) error {
	s.n++
	s.win.Push(c)
	if !s.win.Full() {
		return nil
	}
	s.win.CopyTo(s.scratch[:])
	hz, ok := vtec.Decode(s.scratch[:])
	if !ok {
		return nil
	}
	s.hits++
	if vtec.Worse(hz, s.best) {
		s.best = hz
	}
	return nil
}

// Write feeds p through WriteByte, so a Scanner can sit behind io.Copy or
// an io.TeeReader.
func (s *Scanner) Write(p []byte) (int, error) {
	for _, c := range p {
		_ = s.WriteByte(c)
	}
	return len(p), nil
}

// Result is the most severe classification seen so far, vtec.None when
// nothing decoded.
func (s *Scanner) Result() vtec.Classification { return s.best }

// Hits counts window positions that decoded.
func (s *Scanner) Hits() int { return s.hits }

// Bytes counts bytes consumed.
func (s *Scanner) Bytes() int64 { return s.n }

// Reset prepares the scanner for a new response.
func (s *Scanner) Reset() {
	s.win.Reset()
	s.best = vtec.None
	s.hits = 0
	s.n = 0
}

// Scan reads r until EOF. On a read error the best result so far is returned
// with the error.
func Scan(r io.Reader) (vtec.Classification, int64, error) {
	var s Scanner
	err := s.Drain(r)
	return s.best, s.n, err
}

// Drain feeds r into s until EOF. io.EOF is not an error.
func (s *Scanner) Drain(r io.Reader) error {
	var buf [ReadSize]byte
	for {
		n, err := r.Read(buf[:])
		for _, c := range buf[:n] {
			_ = s.WriteByte(c)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
