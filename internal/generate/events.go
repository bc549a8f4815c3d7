package generate

import (
	"sync"
	"time"
)

// State is a step of the generation state machine.
type State string

// Generation states. Received, Chunking, Merging, Deduplicating, Done and
// Failed concern the whole request; the others concern one chunk.
const (
	StateReceived      State = "received"
	StateChunking      State = "chunking"
	StatePrompting     State = "prompting"
	StateRequesting    State = "requesting"
	StateRetrying      State = "retrying"
	StateChunkDone     State = "chunk_done"
	StateChunkFailed   State = "chunk_failed"
	StateMerging       State = "merging"
	StateDeduplicating State = "deduplicating"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Event is a state transition.
type Event struct {
	State State
	// Chunk is the 0-based chunk index, or -1 for request-wide events.
	Chunk int
	// Total is the chunk count, 0 before chunking.
	Total int
	// Attempt is the upcoming attempt number for StateRetrying.
	Attempt int
	// Delay is the backoff before that attempt.
	Delay time.Duration
	// Err is set for StateChunkFailed and StateFailed.
	Err error
}

// ProgressFunc receives state transitions. Calls are serialized.
type ProgressFunc func(Event)

// emitter serializes calls to a ProgressFunc across chunk goroutines.
type emitter struct {
	mu sync.Mutex
	fn ProgressFunc
}

func (e *emitter) emit(ev Event) {
	if e == nil || e.fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fn(ev)
}
