// Package aggregates declares the write boundaries of the progression engine.
//
// An aggregate method is one database transaction. Everything a learner's XP, level,
// streaks, caps and unlocks depend on is decided and written inside it.
package aggregates
