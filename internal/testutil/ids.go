package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator returns "<prefix>-1", "<prefix>-2", ... in call order.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator for the given prefix.
// An empty prefix defaults to "id".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
