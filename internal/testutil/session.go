// Package testutil provides deterministic substitutes for the
// generators interactive code normally randomizes. Scenario execution
// and golden comparison depend on byte-identical output across runs.
package testutil

// StaticSessionGenerator returns the same session token on every call.
//
// This enables deterministic test execution and golden trace
// comparison: the same scenario with the same token produces
// byte-identical traces.
//
// Unlike interaction.FixedGenerator, which hands out a finite token
// list and panics when it runs dry, a static generator survives
// controller rebuilds, so reload cycles can share one.
//
// Thread-safety: StaticSessionGenerator is stateless and safe for
// concurrent use.
type StaticSessionGenerator struct {
	token string
}

// NewStaticSessionGenerator creates a generator for the given token.
//
// The token is typically set in the scenario YAML:
//
//	session: "my-session"
//
// If token is empty, Generate() returns "test-session".
func NewStaticSessionGenerator(token string) *StaticSessionGenerator {
	if token == "" {
		token = "test-session"
	}
	return &StaticSessionGenerator{token: token}
}

// Generate returns the fixed session token.
//
// Implements interaction.TokenGenerator.
func (g *StaticSessionGenerator) Generate() string {
	return g.token
}
