package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"

	"account-explorer/internal/models"
)

// fold maps every rune to one representative of its simple case-folding
// orbit. Each rune folds on its own, so "ß" never becomes "ss".
var fold = runes.Map(foldRune)

func foldRune(r rune) rune {
	lowest := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lowest {
			lowest = f
		}
	}
	return lowest
}

// Matcher tests rows for a literal, case-insensitive substring in any cell.
type Matcher struct {
	needle string
}

func NewMatcher(text string) *Matcher {
	m := &Matcher{}
	if text != "" {
		m.needle = fold.String(text)
	}
	return m
}

// Matches reports whether any cell of r contains the search text. With empty
// text every row matches.
func (m *Matcher) Matches(r models.Record) bool {
	if m.needle == "" {
		return true
	}
	for _, c := range r.Cells {
		if c == "" {
			continue
		}
		if strings.Contains(fold.String(c), m.needle) {
			return true
		}
	}
	return false
}

// Matches is the one-shot form of Matcher.Matches.
func Matches(r models.Record, text string) bool {
	return NewMatcher(text).Matches(r)
}
