package lang

import (
	"fmt"
	"strings"
)

// Supported language codes. Instruction templates and user-facing messages
// exist for these two languages only.
const (
	French  = "fr"
	English = "en"
)

// Language is a validated supported language.
// The zero value means "not specified" (detect from the corpus).
type Language struct {
	code string
}

// Pre-parsed languages.
var (
	FrenchLanguage  = Language{code: French}
	EnglishLanguage = Language{code: English}
)

// Fallback is used when detection is inconclusive.
var Fallback = FrenchLanguage

// Normalize normalizes a language code to lowercase with hyphen separator.
// Accepts: "fr-CA", "fr_CA", "FR-CA" -> "fr-ca"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// BaseCode extracts the ISO 639-1 base code from a locale.
// Examples: "fr-CA" -> "fr", "en-GB" -> "en", "en" -> "en"
func BaseCode(code string) string {
	normalized := Normalize(code)
	if idx := strings.Index(normalized, "-"); idx != -1 {
		return normalized[:idx]
	}
	return normalized
}

// Parse validates a language code. Regional variants collapse to their base
// language ("en-GB" -> en). Empty string returns the zero Language.
// Returns ErrInvalid for languages without templates.
func Parse(code string) (Language, error) {
	if code == "" {
		return Language{}, nil
	}
	switch BaseCode(code) {
	case French:
		return FrenchLanguage, nil
	case English:
		return EnglishLanguage, nil
	default:
		return Language{}, fmt.Errorf("unsupported language %q (use %s or %s): %w",
			code, French, English, ErrInvalid)
	}
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(code string) Language {
	l, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the language code. Empty for the zero value.
func (l Language) String() string {
	return l.code
}

// IsZero reports whether no language was set.
func (l Language) IsZero() bool {
	return l.code == ""
}

// OrDefault returns the language, or Fallback if zero.
func (l Language) OrDefault() Language {
	if l.IsZero() {
		return Fallback
	}
	return l
}
