package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator mints deterministic prefix-numbered ids: memo-001,
// memo-002, and so on.
//
// Annotations created during a scripted scenario need stable ids for
// golden comparison; random ids would differ on every run. The
// sequence never runs dry, and Reset lets one generator serve
// repeated runs with identical output.
//
// Thread-safety: all methods are safe for concurrent use via an
// internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator starting at zero.
//
// The first call to Generate() returns "<prefix>-001".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
//
// Implements interaction.TokenGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}

// Reset rewinds the sequence.
//
// After Reset(), the next call to Generate() returns "<prefix>-001"
// again.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
