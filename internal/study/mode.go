package study

import (
	"errors"
	"fmt"
)

// ErrInvalidMode indicates an unknown generation mode was specified.
var ErrInvalidMode = errors.New("invalid generation mode")

// Mode name constants.
const (
	Document   = "document"
	Collection = "collection"
	Subject    = "subject"
)

// Mode identifies where a corpus comes from: a single document, a collection
// of documents, or the material of a whole subject. It selects the wording of
// the instruction templates and is recorded in error context.
// Zero value is invalid; use ParseMode or the pre-parsed values.
type Mode struct {
	name string
}

// Pre-parsed modes.
var (
	DocumentMode   = Mode{name: Document}
	CollectionMode = Mode{name: Collection}
	SubjectMode    = Mode{name: Subject}
)

// modeOrder is the canonical order used in help text and error messages.
var modeOrder = []string{Document, Collection, Subject}

// ParseMode validates and parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case Document, Collection, Subject:
		return Mode{name: s}, nil
	case "":
		return Mode{}, fmt.Errorf("mode cannot be empty: %w", ErrInvalidMode)
	default:
		return Mode{}, fmt.Errorf("unknown mode %q (use %s, %s or %s): %w",
			s, Document, Collection, Subject, ErrInvalidMode)
	}
}

// MustParseMode parses a mode, panicking if invalid.
// Use only for constants and tests.
func MustParseMode(s string) Mode {
	m, err := ParseMode(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the mode name. Empty for the zero value.
func (m Mode) String() string {
	return m.name
}

// IsZero reports whether no mode was set.
func (m Mode) IsZero() bool {
	return m.name == ""
}

// Modes returns the supported mode names in canonical order.
func Modes() []string {
	out := make([]string, len(modeOrder))
	copy(out, modeOrder)
	return out
}
