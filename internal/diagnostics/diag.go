// Package diagnostics records operator-facing events (driver fallbacks,
// fetch failures, self tests) for the status server.
package diagnostics

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// DefaultSize is how many diagnostics a Log keeps.
const DefaultSize = 64

// Log keeps the most recent diagnostics and fans new ones out to
// subscribers. Safe for concurrent use.
type Log struct {
	mu    sync.Mutex
	clock clockwork.Clock
	buf   []Diagnostic
	next  int
	full  bool
	subs  map[chan Diagnostic]struct{}
}

func NewLog(size int, clock clockwork.Clock) *Log {
	if size <= 0 {
		size = DefaultSize
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Log{clock: clock, buf: make([]Diagnostic, size), subs: map[chan Diagnostic]struct{}{}}
}

// Push stamps d if needed and records it. Slow subscribers miss entries
// rather than block the caller.
func (l *Log) Push(d Diagnostic) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if d.Time.IsZero() {
		d.Time = l.clock.Now()
	}
	l.buf[l.next] = d
	l.next++
	if l.next == len(l.buf) {
		l.next, l.full = 0, true
	}
	for ch := range l.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

// Recent returns the kept diagnostics, oldest first.
func (l *Log) Recent() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return append([]Diagnostic(nil), l.buf[:l.next]...)
	}
	out := make([]Diagnostic, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}

// Subscribe returns a channel of new diagnostics and a func to stop.
func (l *Log) Subscribe() (<-chan Diagnostic, func()) {
	ch := make(chan Diagnostic, 16)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()
	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[ch]; ok {
			delete(l.subs, ch)
			close(ch)
		}
	}
}
