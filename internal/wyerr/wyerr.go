// Package wyerr holds the sentinel error values shared across the
// core's packages: validation, not-found, timeout, invariant breach,
// and content errors.
package wyerr

import "errors"

var (
	// ErrValidation: malformed packet, unknown opcode, out-of-stage
	// opcode, invalid field value. Logged; connection stays open.
	ErrValidation = errors.New("validation error")

	// ErrNotFound: entity, creature template, zone, or encounter not
	// found. Never fatal.
	ErrNotFound = errors.New("not found")

	// ErrTimeout: DB timeout or inter-worker call timeout.
	ErrTimeout = errors.New("timeout")

	// ErrInvariant: an internal invariant broke (e.g. spatial grid and
	// entity map disagree). Fatal for the owning worker.
	ErrInvariant = errors.New("invariant breach")

	// ErrContent: a content reference points at something absent
	// (race mapping to a missing loot table, etc). Logged at load
	// time; callers fall back to a safe default.
	ErrContent = errors.New("content error")
)
