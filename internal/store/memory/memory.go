package memory

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"recount/internal/core"
	"recount/internal/store"
)

var (
	_ store.TotalStore  = (*Store)(nil)
	_ store.EventWriter = (*Store)(nil)
	_ store.EventLister = (*Store)(nil)
	_ store.AliasStore  = (*Store)(nil)
)

var ErrNegativeTotal = errors.New("total cannot be negative")

type Store struct {
	mu      sync.Mutex
	total   int64
	writes  int
	events  []core.Event
	aliases map[string]core.Category
}

func New(total int64) *Store {
	if total < 0 {
		total = 0
	}
	return &Store{total: total, aliases: make(map[string]core.Category)}
}

// NewFromFiles seeds the running total from base/seed_total.txt and
// user-defined aliases from base/aliases.txt when present. Malformed alias
// lines are skipped.
func NewFromFiles(base string) *Store {
	var total int64
	if lines := readLines(filepath.Join(base, "seed_total.txt")); len(lines) > 0 {
		if n, err := strconv.ParseInt(lines[0], 10, 64); err == nil {
			total = n
		}
	}
	s := New(total)
	for _, line := range readLines(filepath.Join(base, "aliases.txt")) {
		a, err := core.ParseAliasLine(line)
		if err != nil {
			continue
		}
		s.aliases[a.Phrase] = a.Category
	}
	return s
}

func (s *Store) ReadTotal(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, nil
}

func (s *Store) WriteTotal(_ context.Context, total int64) error {
	if total < 0 {
		return ErrNegativeTotal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.writes++
	return nil
}

// Writes returns how many totals have been written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) RecordEvent(_ context.Context, e core.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) ListEvents(_ context.Context, limit int) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]core.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *Store) ListAliases(_ context.Context) ([]core.AliasEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AliasEntry, 0, len(s.aliases))
	for p, c := range s.aliases {
		out = append(out, core.AliasEntry{Phrase: p, Category: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phrase < out[j].Phrase })
	return out, nil
}

func (s *Store) SaveAlias(_ context.Context, a core.AliasEntry) error {
	phrase := core.NormalizePhrase(a.Phrase)
	if phrase == "" {
		return core.ErrEmptyPhrase
	}
	if !a.Category.Valid() {
		return core.ErrUnknownCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[phrase] = a.Category
	return nil
}

func (s *Store) DeleteAlias(_ context.Context, phrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.aliases, core.NormalizePhrase(phrase))
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
