// Package section defines the shared performance section marker and its
// display projection.
package section

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder is shown when no section is active. A zero-width space keeps the
// line height of the display without drawing a glyph.
const Placeholder = "\u200b"

var (
	// ErrInvalidCategory is returned when a category is not exactly one printable character.
	ErrInvalidCategory = errors.New("section: category must be a single character")

	// ErrInvalidNumber is returned when a section number is not a positive integer.
	ErrInvalidNumber = errors.New("section: number must be a positive integer")
)

// State is the current section: a category letter and an optional number.
// The zero value means no active section.
type State struct {
	// Category identifies the section kind (verse, chorus, ...). Zero means none.
	Category rune

	// Number qualifies the category. Zero means none.
	Number uint
}

// HasCategory reports whether a category is set.
func (s State) HasCategory() bool {
	return s.Category != 0
}

// HasNumber reports whether a number is set.
func (s State) HasNumber() bool {
	return s.Number != 0
}

// Display returns the text shown to viewers.
//
// A number recorded without a category is not displayed until a category is set.
func (s State) Display() string {
	if !s.HasCategory() {
		return Placeholder
	}
	if !s.HasNumber() {
		return string(s.Category)
	}
	return string(s.Category) + strconv.FormatUint(uint64(s.Number), 10)
}

// String implements fmt.Stringer for logging.
func (s State) String() string {
	var b strings.Builder
	b.WriteByte('(')
	if s.HasCategory() {
		b.WriteRune(s.Category)
	} else {
		b.WriteString("none")
	}
	b.WriteString(", ")
	if s.HasNumber() {
		b.WriteString(strconv.FormatUint(uint64(s.Number), 10))
	} else {
		b.WriteString("none")
	}
	b.WriteByte(')')
	return b.String()
}

// WithNumber returns a copy of s with its number replaced.
func (s State) WithNumber(n uint) State {
	s.Number = n
	return s
}

// ParseCategory parses a form value holding exactly one character.
func ParseCategory(raw string) (rune, error) {
	if utf8.RuneCountInString(raw) != 1 {
		return 0, ErrInvalidCategory
	}
	r, _ := utf8.DecodeRuneInString(raw)
	if r == utf8.RuneError || unicode.IsControl(r) || unicode.IsSpace(r) {
		return 0, ErrInvalidCategory
	}
	return r, nil
}

// ParseNumber parses a form value holding a positive decimal integer.
func ParseNumber(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidNumber
	}
	n, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, ErrInvalidNumber
	}
	return uint(n), nil
}
