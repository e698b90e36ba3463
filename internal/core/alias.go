package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AliasEntry binds a normalized phrase to a category.
type AliasEntry struct {
	Phrase   string   `json:"phrase"`
	Category Category `json:"category"`
}

// AliasTable maps recognized phrase variants to categories. A phrase maps
// to at most one category. Safe for concurrent use.
type AliasTable struct {
	mu      sync.RWMutex
	entries map[string]Category
}

var defaultAliases = map[Category][]string{
	PET: {
		"pet 1", "pet one", "pete", "pet 1 plastic bottles", "pet one plastic bottles",
		"plastic bottle", "plastic bottles", "water bottle", "water bottles",
	},
	HDPE: {
		"hdpe 2", "hdpe two", "hdpe 2 plastic", "high density plastic",
		"milk jug", "milk jugs", "jug", "jugs", "detergent bottle", "detergent bottles",
	},
	Glass: {
		"glass bottle", "glass bottles", "glass jar", "glass jars", "jar", "jars",
	},
	Carton: {
		"cartons", "tetra pak", "tetrapak", "juice box", "juice boxes", "milk carton", "milk cartons",
	},
	Can: {
		"cans", "aluminum can", "aluminum cans", "aluminium can", "aluminium cans",
		"tin can", "tin cans", "soda can", "soda cans",
	},
}

// NewAliasTable returns a table holding only the canonical category names.
func NewAliasTable() *AliasTable {
	t := &AliasTable{entries: make(map[string]Category)}
	for _, c := range Categories() {
		t.entries[NormalizePhrase(c.String())] = c
	}
	return t
}

// DefaultAliasTable returns the canonical names plus built-in synonyms.
func DefaultAliasTable() *AliasTable {
	t := NewAliasTable()
	for c, phrases := range defaultAliases {
		for _, p := range phrases {
			t.entries[NormalizePhrase(p)] = c
		}
	}
	return t
}

// NormalizePhrase lowercases, trims and collapses internal whitespace.
func NormalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Resolve looks up a raw phrase. Unknown phrases return false.
func (t *AliasTable) Resolve(raw string) (Category, bool) {
	key := NormalizePhrase(raw)
	if key == "" {
		return 0, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.entries[key]
	return c, ok
}

// Add binds phrase to c. Re-adding an identical binding is a no-op.
func (t *AliasTable) Add(phrase string, c Category) error {
	if !c.Valid() {
		return ErrUnknownCategory
	}
	key := NormalizePhrase(phrase)
	if key == "" {
		return ErrEmptyPhrase
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[key]; ok && existing != c {
		return ErrAliasConflict
	}
	t.entries[key] = c
	return nil
}

// Remove unbinds phrase and reports whether it was present.
func (t *AliasTable) Remove(phrase string) (bool, error) {
	key := NormalizePhrase(phrase)
	if key == "" {
		return false, ErrEmptyPhrase
	}
	if _, err := ParseCategory(key); err == nil {
		return false, ErrCanonicalAlias
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; !ok {
		return false, nil
	}
	delete(t.entries, key)
	return true, nil
}

// Entries returns a snapshot sorted by category, then phrase.
func (t *AliasTable) Entries() []AliasEntry {
	t.mu.RLock()
	out := make([]AliasEntry, 0, len(t.entries))
	for p, c := range t.entries {
		out = append(out, AliasEntry{Phrase: p, Category: c})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Phrase < out[j].Phrase
	})
	return out
}

// Len returns the number of bound phrases.
func (t *AliasTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// ParseAliasLine parses a seed line of the form "phrase = CATEGORY".
func ParseAliasLine(line string) (AliasEntry, error) {
	phrase, cat, ok := strings.Cut(line, "=")
	if !ok {
		return AliasEntry{}, fmt.Errorf("alias line %q: missing '='", line)
	}
	phrase = NormalizePhrase(phrase)
	if phrase == "" {
		return AliasEntry{}, ErrEmptyPhrase
	}
	c, err := ParseCategory(cat)
	if err != nil {
		return AliasEntry{}, fmt.Errorf("alias line %q: %w", line, err)
	}
	return AliasEntry{Phrase: phrase, Category: c}, nil
}
