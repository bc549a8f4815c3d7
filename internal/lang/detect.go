package lang

import (
	"strings"
	"unicode"
)

// DefaultSampleSize is how many leading characters Detect inspects.
const DefaultSampleSize = 2000

// Detector classifies the language of a text sample.
// Implementations must be safe for concurrent use.
type Detector interface {
	Detect(text string) Language
}

// Compile-time interface compliance check.
var _ Detector = StopWordDetector{}

// StopWordDetector counts stop-word hits for French and English and returns
// the language with more hits, or Fallback on a tie.
// Any other language is misclassified as one of the two.
type StopWordDetector struct {
	// SampleSize limits the inspected prefix (in runes). Zero means DefaultSampleSize.
	SampleSize int
}

// Stop words unique to each language. Homographs used by both
// ("a", "on", "en") are excluded.
var (
	frenchStopWords = toSet(
		"le", "la", "les", "de", "des", "du", "et", "est", "un", "une", "dans",
		"que", "qui", "pour", "pas", "sur", "au", "aux", "avec", "ce", "cette",
		"ces", "il", "elle", "nous", "vous", "ils", "elles", "sont", "par",
		"plus", "ne", "se", "mais", "ou", "où", "son", "sa", "ses", "leur",
		"être", "été", "fait", "comme", "entre", "lors", "donc",
	)
	englishStopWords = toSet(
		"the", "and", "of", "to", "is", "in", "that", "it", "for", "with",
		"as", "are", "was", "this", "be", "by", "not", "or", "from", "at",
		"which", "an", "have", "has", "were", "can", "their", "these", "they",
		"we", "you", "been", "will", "would", "there", "what", "when", "between",
	)
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Detect returns the language of the sample.
func (d StopWordDetector) Detect(text string) Language {
	size := d.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}

	var fr, en int
	for _, w := range words(sample(text, size)) {
		if _, ok := frenchStopWords[w]; ok {
			fr++
		}
		if _, ok := englishStopWords[w]; ok {
			en++
		}
	}

	switch {
	case fr > en:
		return FrenchLanguage
	case en > fr:
		return EnglishLanguage
	default:
		return Fallback
	}
}

// Detect classifies text with the default StopWordDetector.
func Detect(text string) Language {
	return StopWordDetector{}.Detect(text)
}

// sample returns at most n leading runes of text.
func sample(text string, n int) string {
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// words lowercases text and splits it on anything that is not a letter.
// Elisions split too: "l'homme" -> "l", "homme".
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
