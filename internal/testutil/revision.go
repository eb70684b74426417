package testutil

import (
	"fmt"
	"sync/atomic"
)

// RevisionGenerator produces predictable catalog revisions:
// "<prefix>-0001", "<prefix>-0002", ...
//
// It satisfies store.RevisionGenerator. Safe for concurrent use.
type RevisionGenerator struct {
	prefix string
	n      atomic.Int64
}

// NewRevisionGenerator returns a generator using prefix, or "rev" when
// prefix is empty.
func NewRevisionGenerator(prefix string) *RevisionGenerator {
	if prefix == "" {
		prefix = "rev"
	}
	return &RevisionGenerator{prefix: prefix}
}

// Generate returns the next revision.
func (g *RevisionGenerator) Generate() string {
	return fmt.Sprintf("%s-%04d", g.prefix, g.n.Add(1))
}
