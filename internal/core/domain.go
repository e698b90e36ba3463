package core

import (
	"errors"
	"strings"
	"time"
)

const (
	PET Category = iota
	HDPE
	Glass
	Carton
	Can
)

// NumCategories is the size of the closed category set.
const NumCategories = int(Can) + 1

type (
	// Category identifies one of the recyclable container types being tallied.
	Category int

	// HistoryEntry records the count a category reached after a mutation.
	HistoryEntry struct {
		Category  Category  `json:"category"`
		Count     int64     `json:"count"`
		Timestamp time.Time `json:"timestamp"`
	}

	// Event is an audit record mirrored to the backend (session start/end,
	// keyword changes).
	Event struct {
		Name string    `json:"name"`
		Date time.Time `json:"date"`
	}
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyPhrase     = errors.New("empty phrase")
	ErrAliasConflict   = errors.New("phrase already mapped to another category")
	ErrCanonicalAlias  = errors.New("canonical category name cannot be removed")
	ErrEmptyEventName  = errors.New("empty event name")
)

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{PET, HDPE, Glass, Carton, Can}
}

// String returns the canonical upper-case name.
func (c Category) String() string {
	switch c {
	case PET:
		return "PET"
	case HDPE:
		return "HDPE"
	case Glass:
		return "GLASS"
	case Carton:
		return "CARTON"
	case Can:
		return "CAN"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case PET, HDPE, Glass, Carton, Can:
		return true
	default:
		return false
	}
}

// MarshalText encodes the category by its canonical name.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrUnknownCategory
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts a canonical name in any case.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory parses a canonical category name, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PET":
		return PET, nil
	case "HDPE":
		return HDPE, nil
	case "GLASS":
		return Glass, nil
	case "CARTON":
		return Carton, nil
	case "CAN":
		return Can, nil
	default:
		return 0, ErrUnknownCategory
	}
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyEventName
	}
	if len(e.Name) > 200 {
		return errors.New("event name too long (max 200 characters)")
	}
	if e.Date.IsZero() {
		return errors.New("event date cannot be zero")
	}
	return nil
}
