package core

import "fmt"

const (
	MutationNone MutationKind = iota
	MutationIncrement
	MutationReset
	MutationSetLockout
	MutationClearLockout
	MutationLockScreen
	MutationUnlockScreen
)

// MutationKind discriminates the actions an utterance or button can produce.
type MutationKind int

// Mutation is the single result of interpreting one input event. Category
// and Amount are meaningful only for the kinds that carry them.
type Mutation struct {
	Kind     MutationKind
	Category Category
	Amount   int64
}

var mutationNames = map[MutationKind]string{
	MutationNone:         "none",
	MutationIncrement:    "increment",
	MutationReset:        "reset",
	MutationSetLockout:   "set_lockout",
	MutationClearLockout: "clear_lockout",
	MutationLockScreen:   "lock_screen",
	MutationUnlockScreen: "unlock_screen",
}

func (k MutationKind) String() string {
	if s, ok := mutationNames[k]; ok {
		return s
	}
	return fmt.Sprintf("mutation(%d)", int(k))
}

func (k MutationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MutationKind) UnmarshalText(b []byte) error {
	for kind, name := range mutationNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown mutation %q", b)
}

func NoMutation() Mutation { return Mutation{Kind: MutationNone} }

func Increment(c Category, amount int64) Mutation {
	return Mutation{Kind: MutationIncrement, Category: c, Amount: amount}
}

func ResetToZero(c Category) Mutation {
	return Mutation{Kind: MutationReset, Category: c}
}

func SetLockout(c Category) Mutation {
	return Mutation{Kind: MutationSetLockout, Category: c}
}

// ClearLockout carries the category the unlock targeted.
func ClearLockout(c Category) Mutation {
	return Mutation{Kind: MutationClearLockout, Category: c}
}

func LockScreen() Mutation   { return Mutation{Kind: MutationLockScreen} }
func UnlockScreen() Mutation { return Mutation{Kind: MutationUnlockScreen} }

// IsNone reports whether the mutation is a no-op.
func (m Mutation) IsNone() bool { return m.Kind == MutationNone }

// IsTally reports whether the mutation changes counts and appends history.
func (m Mutation) IsTally() bool {
	return m.Kind == MutationIncrement || m.Kind == MutationReset
}

func (m Mutation) String() string {
	switch m.Kind {
	case MutationIncrement:
		return fmt.Sprintf("increment(%s, %d)", m.Category, m.Amount)
	case MutationReset, MutationSetLockout, MutationClearLockout:
		return fmt.Sprintf("%s(%s)", m.Kind, m.Category)
	default:
		return m.Kind.String()
	}
}
