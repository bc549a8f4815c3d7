// Package chunk splits a long corpus into bounded, overlapping segments and
// distributes the global item quota across them.
//
// Every chunk carries primary text plus read-only context borrowed from its
// neighbors. Quotas are allocated proportionally to primary text length so
// that the per-chunk targets sum exactly to the global target and no chunk
// is asked for fewer than one item of each kind.
package chunk

import (
	"unicode"

	"github.com/alnah/go-studygen/internal/study"
)

// Default chunking parameters, in characters.
const (
	DefaultThreshold = 40000
	DefaultWindow    = 40000
	DefaultOverlap   = 2000
)

// snapRatio is the fraction of a window that must be kept when snapping
// a chunk boundary back to a paragraph, sentence or word break.
const snapRatio = 0.9

// Options configures Split. Zero values use the defaults.
type Options struct {
	// Threshold is the corpus length at or below which no splitting happens.
	Threshold int
	// Window is the maximum primary length of a chunk.
	Window int
	// Overlap is the context length borrowed from each neighbor.
	Overlap int
}

// normalize fills zero or invalid fields with defaults.
// Overlap is capped below Window.
func (o *Options) normalize() {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.Overlap < 0 {
		o.Overlap = 0
	}
	if o.Overlap >= o.Window {
		o.Overlap = o.Window / 2
	}
}

// Chunk is one segment of the corpus processed by a single completion call.
type Chunk struct {
	// Text is the primary content of the chunk.
	Text string
	// Leading is context copied from the end of the previous chunk (empty for the first).
	Leading string
	// Trailing is context copied from the start of the next chunk (empty for the last).
	Trailing string
	Index    int // 0-based
	Total    int
	Target   study.Target
}

// IsSingle reports whether the corpus was not split.
func (c Chunk) IsSingle() bool {
	return c.Total <= 1
}

// Split divides text into chunks and allocates target across them.
//
// A corpus no longer than opts.Threshold yields one chunk with the full
// target. Otherwise primary segments of at most opts.Window characters are
// cut, preferring paragraph, then sentence, then word boundaries near the end
// of each window. When the target cannot give each segment one item of each
// kind, the window is widened so that the chunk count equals
// min(target.Flashcards, target.Quiz).
func Split(text string, target study.Target, opts Options) ([]Chunk, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	opts.normalize()

	runes := []rune(text)
	if len(runes) <= opts.Threshold {
		return []Chunk{{Text: text, Index: 0, Total: 1, Target: target}}, nil
	}

	maxChunks := min(target.Flashcards, target.Quiz)
	window := opts.Window
	snap := true
	if ceilDiv(len(runes), window) > maxChunks {
		window = ceilDiv(len(runes), maxChunks)
		snap = false
	}

	bounds := segment(runes, window, snap)
	if len(bounds) > maxChunks {
		// Snapping shortened the spans enough to need an extra one; plain
		// windows always fit in maxChunks.
		bounds = segment(runes, window, false)
	}

	sizes := make([]int, len(bounds))
	for i, b := range bounds {
		sizes[i] = b.end - b.start
	}
	targets, err := Allocate(target, sizes)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(bounds))
	for i, b := range bounds {
		chunks[i] = Chunk{
			Text:     string(runes[b.start:b.end]),
			Leading:  string(runes[max(0, b.start-opts.Overlap):b.start]),
			Trailing: string(runes[b.end:min(len(runes), b.end+opts.Overlap)]),
			Index:    i,
			Total:    len(bounds),
			Target:   targets[i],
		}
	}
	return chunks, nil
}

// span is a half-open rune range [start, end).
type span struct {
	start, end int
}

// segment cuts runes into consecutive spans of at most window runes.
func segment(runes []rune, window int, snap bool) []span {
	var spans []span
	for start := 0; start < len(runes); {
		end := min(start+window, len(runes))
		if snap && end < len(runes) {
			end = boundary(runes, start, end)
		}
		spans = append(spans, span{start: start, end: end})
		start = end
	}
	return spans
}

// boundary moves end back to the last paragraph break, sentence end or
// whitespace found in the final part of the window. Returns end unchanged
// when none is found. Requires end < len(runes).
func boundary(runes []rune, start, end int) int {
	floor := start + int(float64(end-start)*snapRatio)

	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if isSentenceEnd(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i
		}
	}
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
