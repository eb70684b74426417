package testutil

import "sync"

// Sequence hands out 1, 2, 3, ... and can be rewound for reuse.
//
// It satisfies store.Sequencer, so catalog tests get the same created_seq
// values on every run. Safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// NewSequence returns a Sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next value.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Last returns the most recent value handed out, 0 before the first Next.
func (s *Sequence) Last() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Rewind makes the next Next return 1 again.
func (s *Sequence) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
}
