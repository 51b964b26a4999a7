// Package aggregates contains infrastructure implementations of domain aggregate contracts.
//
// Implementations compose the table repos from internal/data/repos and own the
// transaction boundary of every invariant-critical write.
package aggregates
