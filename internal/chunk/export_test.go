package chunk

// Exports for testing.
var (
	Boundary = boundary
	Segment  = segment
)

// SpanBounds exposes span bounds to black-box tests.
func SpanBounds(spans []span) [][2]int {
	out := make([][2]int, len(spans))
	for i, s := range spans {
		out[i] = [2]int{s.start, s.end}
	}
	return out
}
