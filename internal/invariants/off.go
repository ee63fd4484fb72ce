//go:build !invariants

// Package invariants gates expensive consistency checks behind the
// "invariants" build tag.
package invariants

// Enabled is true when built with the "invariants" tag.
const Enabled = false
