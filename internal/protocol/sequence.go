package protocol

import "sync"

// Sequencer hands out the per-session packet sequence numbers. The send path
// and the auto-responder share one instance, so Next is serialized: numbers
// are never skipped or duplicated, and a failed encode never consumes one.
type Sequencer struct {
	mu sync.Mutex
	n  uint16
}

// NewSequencer returns a counter starting at zero; the first packet carries
// sequence one.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next increments the counter and returns the new value. Wraps at 65535.
func (s *Sequencer) Next() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

// Current returns the last value handed out without consuming one. It is the
// number reported in restart sync exchanges.
func (s *Sequencer) Current() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
