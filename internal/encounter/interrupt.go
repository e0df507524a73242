package encounter

import "sync"

// InterruptArmor tracks one cast's remaining interrupt-resistance
// stacks ("castable abilities carry an interrupt armor pool;
// each interrupt attempt consumes one stack regardless of the
// attempt's own power; armor reaching zero triggers the ability's
// on_interrupt effect instead of completing the cast").
type InterruptArmor struct {
	mu         sync.Mutex
	stacks     int
	vulnerable bool // true once armor hits zero: a Moment of Opportunity window is open
}

// NewInterruptArmor starts a pool with stacks resistance (from the
// ability's own InterruptArmor, or the boss default when that is 0).
func NewInterruptArmor(stacks int) *InterruptArmor {
	if stacks < 0 {
		stacks = 0
	}
	return &InterruptArmor{stacks: stacks}
}

// Attempt consumes one stack and reports whether this attempt broke
// the cast (armor reached zero). A cast with zero starting stacks is
// broken by the first attempt.
func (a *InterruptArmor) Attempt() (broken bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stacks > 0 {
		a.stacks--
	}
	if a.stacks == 0 {
		a.vulnerable = true
		return true
	}
	return false
}

// Remaining reports the current stack count.
func (a *InterruptArmor) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stacks
}

// Vulnerable reports whether this cast is in its post-break Moment of
// Opportunity window. Only Reset (Engine.RecoverArmor) and
// ClearVulnerable clear it; the engine does not clear it on its own
// when a duration elapses or the cast ends.
func (a *InterruptArmor) Vulnerable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vulnerable
}

// ClearVulnerable closes the Moment of Opportunity window, e.g. once
// the on_interrupt effect's duration has elapsed.
func (a *InterruptArmor) ClearVulnerable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vulnerable = false
}

// Reset restores the pool to stacks for the next cast of the same
// ability.
func (a *InterruptArmor) Reset(stacks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if stacks < 0 {
		stacks = 0
	}
	a.stacks = stacks
	a.vulnerable = false
}
