package core

// Lockout pins bare numeric utterances to a single category. The zero
// value is Unlocked.
type Lockout struct {
	category Category
	active   bool
}

// LockedTo returns a lockout pinned to c.
func LockedTo(c Category) Lockout {
	return Lockout{category: c, active: true}
}

// Active returns the pinned category, if any.
func (l Lockout) Active() (Category, bool) {
	return l.category, l.active
}

// Set pins c, replacing any previous lockout.
func (l *Lockout) Set(c Category) {
	l.category = c
	l.active = true
}

// Clear unlocks only when c matches the pinned category and reports whether
// the transition happened.
func (l *Lockout) Clear(c Category) bool {
	if !l.active || l.category != c {
		return false
	}
	*l = Lockout{}
	return true
}

// Reset returns to Unlocked unconditionally (session end).
func (l *Lockout) Reset() {
	*l = Lockout{}
}

func (l Lockout) String() string {
	if !l.active {
		return "unlocked"
	}
	return "locked_to(" + l.category.String() + ")"
}
