// Package interrupt turns SIGINT/SIGTERM into context cancellation for a
// running generation, with a forced exit on a quick second Ctrl+C.
package interrupt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ErrInterrupted is the cancellation cause recorded on the first signal.
var ErrInterrupted = errors.New("interrupted")

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// forceWindow is the time window for a second Ctrl+C to force exit.
const forceWindow = 2 * time.Second

const (
	stoppingMessage = "\nStopping: canceling pending requests (press Ctrl+C again to quit now)"
	abortMessage    = "\nAborted."
)

// Handler cancels its context on the first signal. A second signal within
// forceWindow exits the process without waiting for in-flight requests
// to unwind.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	stopped        bool
	cancel         context.CancelCauseFunc
	done           chan struct{}

	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT/SIGTERM and returns a context canceled
// on the first one.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancelCause(parent)

	h := &Handler{
		cancel:   cancel,
		done:     make(chan struct{}),
		exitFunc: opts.ExitFunc,
		nowFunc:  opts.NowFunc,
		stderr:   opts.Stderr,
	}
	if h.exitFunc == nil {
		h.exitFunc = os.Exit
	}
	if h.nowFunc == nil {
		h.nowFunc = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle processes one signal and reports whether the listener should exit.
func (h *Handler) handle() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.nowFunc()

	if !h.interrupted {
		h.interrupted = true
		h.firstInterrupt = now
		h.mu.Unlock()
		h.cancel(ErrInterrupted)
		fmt.Fprintln(h.stderr, stoppingMessage)
		return false
	}

	if now.Sub(h.firstInterrupt) > forceWindow {
		// Too late to count as a double press; restart the window.
		h.firstInterrupt = now
		h.mu.Unlock()
		fmt.Fprintln(h.stderr, stoppingMessage)
		return false
	}
	h.mu.Unlock()

	fmt.Fprintln(h.stderr, abortMessage)
	h.exitFunc(ExitInterrupt)
	return true
}

// WasInterrupted returns true if at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Stop restores default signal handling and releases the listener.
// Safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancel(nil)
}
