package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator generates "<prefix>-1", "<prefix>-2", ... so operation
// ids in logs and errors are stable across runs.
//
// If prefix is empty, "op" is used.
//
// Thread-safety: SequenceIDGenerator is safe for concurrent use.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator with the given prefix.
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "op"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
