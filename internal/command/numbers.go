package command

import (
	"strconv"
	"strings"
)

// MaxAmount bounds a single spoken or pressed increment.
const MaxAmount = 100

var units = map[string]int64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int64{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// parseAmount reads a count from the leading words of fields and returns
// the value and how many words it consumed. Digits ("12") and English number
// words ("twelve", "twenty one", "twenty-one", "a hundred") are accepted.
func parseAmount(fields []string) (int64, int, bool) {
	if len(fields) == 0 {
		return 0, 0, false
	}

	if n, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
		return n, 1, true
	}

	first := fields[0]
	if first == "a" || first == "one" {
		if len(fields) > 1 && fields[1] == "hundred" {
			return 100, 2, true
		}
	}

	if tn, rest, ok := strings.Cut(first, "-"); ok {
		t, okT := tens[tn]
		u, okU := units[rest]
		if okT && okU && u > 0 && u < 10 {
			return t + u, 1, true
		}
		return 0, 0, false
	}

	if u, ok := units[first]; ok {
		return u, 1, true
	}

	if t, ok := tens[first]; ok {
		if len(fields) > 1 {
			if u, ok := units[fields[1]]; ok && u > 0 && u < 10 {
				return t + u, 2, true
			}
		}
		return t, 1, true
	}

	return 0, 0, false
}

// shorterAmount re-reads a two-word "tens unit" amount as the tens word
// alone, leaving the unit word to the phrase that follows.
func shorterAmount(fields []string) (int64, int, bool) {
	if len(fields) < 2 {
		return 0, 0, false
	}
	if _, ok := units[fields[1]]; !ok {
		return 0, 0, false
	}
	t, ok := tens[fields[0]]
	return t, 1, ok
}

// validAmount reports whether n can be applied as an increment.
func validAmount(n int64) bool {
	return n >= 1 && n <= MaxAmount
}
