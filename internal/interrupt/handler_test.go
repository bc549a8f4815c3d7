package interrupt_test

// Notes:
// - Black-box tests; signals, clock and exit are injected via NewHandlerWithOptions.
// - ctx.Done() confirms the first signal was processed before sending the next.
// - bytes.Buffer is not thread-safe, hence syncBuffer for stderr.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-studygen/internal/interrupt"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// steppedClock returns base, then base+step, base+2*step, ... on each call.
func steppedClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := base.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be canceled after first signal")
	}
}

// ---------------------------------------------------------------------------
// TestNewHandler
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandler(context.Background())
	require.NotNil(t, h)
	require.NotNil(t, ctx)

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled before any signal")
	default:
	}
	assert.False(t, h.WasInterrupted())

	h.Stop()
	h.Stop()
}

// ---------------------------------------------------------------------------
// TestHandler_FirstInterrupt
// ---------------------------------------------------------------------------

func TestHandler_FirstInterrupt(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	var exited atomic.Bool

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		ExitFunc: func(int) { exited.Store(true) },
		Stderr:   &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitDone(t, ctx)

	assert.True(t, h.WasInterrupted())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, errors.Is(context.Cause(ctx), interrupt.ErrInterrupted))
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(stderr.String()), []byte("press Ctrl+C again"))
	}, time.Second, 5*time.Millisecond)
	assert.False(t, exited.Load())
}

// ---------------------------------------------------------------------------
// TestHandler_SecondInterrupt
// ---------------------------------------------------------------------------

func TestHandler_SecondInterrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		step      time.Duration
		wantExit  bool
		wantAbort bool
	}{
		{name: "within window exits", step: time.Second, wantExit: true, wantAbort: true},
		{name: "after window restarts", step: 5 * time.Second, wantExit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sigCh := make(chan os.Signal, 2)
			var stderr syncBuffer
			var code atomic.Int32
			code.Store(-1)

			h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
				SigCh:    sigCh,
				ExitFunc: func(c int) { code.Store(int32(c)) },
				NowFunc:  steppedClock(tt.step),
				Stderr:   &stderr,
			})
			defer h.Stop()

			sigCh <- os.Interrupt
			waitDone(t, ctx)
			sigCh <- os.Interrupt

			if tt.wantExit {
				assert.Eventually(t, func() bool {
					return code.Load() == interrupt.ExitInterrupt
				}, time.Second, 5*time.Millisecond)
				assert.Contains(t, stderr.String(), "Aborted.")
				return
			}

			assert.Eventually(t, func() bool {
				return bytes.Count([]byte(stderr.String()), []byte("Stopping")) == 2
			}, time.Second, 5*time.Millisecond)
			assert.Equal(t, int32(-1), code.Load())
			assert.NotContains(t, stderr.String(), "Aborted.")
		})
	}
}

// ---------------------------------------------------------------------------
// TestHandler_Stop
// ---------------------------------------------------------------------------

func TestHandler_StopIgnoresLaterSignals(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:  sigCh,
		Stderr: &stderr,
	})
	h.Stop()

	sigCh <- os.Interrupt
	time.Sleep(20 * time.Millisecond)

	assert.False(t, h.WasInterrupted())
	assert.Empty(t, stderr.String())
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "Stop releases the context")
	assert.NotErrorIs(t, context.Cause(ctx), interrupt.ErrInterrupted)
}

func TestHandler_ParentCancellation(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	h, ctx := interrupt.NewHandlerWithOptions(parent, interrupt.Options{})
	defer h.Stop()

	cancel()
	waitDone(t, ctx)
	assert.False(t, h.WasInterrupted())
}
