// Package command turns recognized utterances and manual button presses
// into tally mutations.
package command

import (
	"fmt"
	"strings"

	"recount/internal/core"
)

const (
	ActionIncrement    Action = "increment"
	ActionReset        Action = "reset"
	ActionLockout      Action = "lockout"
	ActionUnlock       Action = "unlock"
	ActionLockScreen   Action = "lock_screen"
	ActionUnlockScreen Action = "unlock_screen"
)

type (
	// Action names a manual control.
	Action string

	// Button is one manual control press. Category and Amount are read only
	// by the actions that need them.
	Button struct {
		Action   Action
		Category core.Category
		Amount   int64
	}
)

// ParseAction validates a control name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionIncrement, ActionReset, ActionLockout, ActionUnlock, ActionLockScreen, ActionUnlockScreen:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Interpreter is total over its input: malformed or irrelevant speech
// yields core.NoMutation, never an error.
type Interpreter struct {
	aliases *core.AliasTable
}

// New builds an interpreter over aliases; nil selects the default table.
func New(aliases *core.AliasTable) *Interpreter {
	if aliases == nil {
		aliases = core.DefaultAliasTable()
	}
	return &Interpreter{aliases: aliases}
}

// Aliases returns the table the interpreter resolves phrases against.
func (i *Interpreter) Aliases() *core.AliasTable {
	return i.aliases
}

// Interpret maps one utterance to at most one mutation. Grammars are tried
// in a fixed order and the first match wins:
//
//	lock screen | unlock screen
//	count <amount> <phrase>
//	reset <phrase>
//	lock out <phrase>
//	unlock <phrase>
//	<amount>            (only while a lockout is active)
func (i *Interpreter) Interpret(utterance string, lockout core.Lockout) core.Mutation {
	fields := tokenize(utterance)
	if len(fields) == 0 {
		return core.NoMutation()
	}

	switch {
	case len(fields) == 2 && fields[0] == "lock" && fields[1] == "screen":
		return core.LockScreen()
	case len(fields) == 2 && fields[0] == "unlock" && fields[1] == "screen":
		return core.UnlockScreen()
	case fields[0] == "count":
		n, used, ok := parseAmount(fields[1:])
		if !ok {
			return core.NoMutation()
		}
		c, ok := i.aliases.Resolve(strings.Join(fields[1+used:], " "))
		if !ok && used == 2 {
			// "twenty one liter jug" may be 20 of "one liter jug".
			if sn, sused, sok := shorterAmount(fields[1:]); sok {
				if c, ok = i.aliases.Resolve(strings.Join(fields[1+sused:], " ")); ok {
					n = sn
				}
			}
		}
		if !ok {
			return core.NoMutation()
		}
		return count(c, n)
	case fields[0] == "reset":
		c, ok := i.aliases.Resolve(strings.Join(fields[1:], " "))
		if !ok {
			return core.NoMutation()
		}
		return reset(c)
	case len(fields) > 2 && fields[0] == "lock" && fields[1] == "out":
		return i.lockOutPhrase(fields[2:])
	case fields[0] == "lockout":
		return i.lockOutPhrase(fields[1:])
	case fields[0] == "unlock":
		c, ok := i.aliases.Resolve(strings.Join(fields[1:], " "))
		if !ok {
			return core.NoMutation()
		}
		return unlock(c, lockout)
	}

	if n, used, ok := parseAmount(fields); ok && used == len(fields) {
		c, locked := lockout.Active()
		if !locked {
			return core.NoMutation()
		}
		return count(c, n)
	}

	return core.NoMutation()
}

// Press maps a manual control to the same mutations the voice grammar
// produces for the equivalent utterance.
func (i *Interpreter) Press(b Button, lockout core.Lockout) core.Mutation {
	switch b.Action {
	case ActionIncrement:
		return count(b.Category, b.Amount)
	case ActionReset:
		return reset(b.Category)
	case ActionLockout:
		return lockOut(b.Category)
	case ActionUnlock:
		return unlock(b.Category, lockout)
	case ActionLockScreen:
		return core.LockScreen()
	case ActionUnlockScreen:
		return core.UnlockScreen()
	default:
		return core.NoMutation()
	}
}

func (i *Interpreter) lockOutPhrase(fields []string) core.Mutation {
	c, ok := i.aliases.Resolve(strings.Join(fields, " "))
	if !ok {
		return core.NoMutation()
	}
	return lockOut(c)
}

func count(c core.Category, n int64) core.Mutation {
	if !c.Valid() || !validAmount(n) {
		return core.NoMutation()
	}
	return core.Increment(c, n)
}

func reset(c core.Category) core.Mutation {
	if !c.Valid() {
		return core.NoMutation()
	}
	return core.ResetToZero(c)
}

func lockOut(c core.Category) core.Mutation {
	if !c.Valid() {
		return core.NoMutation()
	}
	return core.SetLockout(c)
}

// unlock only targets the active lockout; anything else is ignored.
func unlock(c core.Category, lockout core.Lockout) core.Mutation {
	current, locked := lockout.Active()
	if !locked || current != c {
		return core.NoMutation()
	}
	return core.ClearLockout(c)
}

func tokenize(s string) []string {
	raw := strings.Fields(strings.ToLower(s))
	out := raw[:0]
	for _, f := range raw {
		f = strings.Trim(f, ".,!?;:\"'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
