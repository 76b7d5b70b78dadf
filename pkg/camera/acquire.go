package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/Hitanshparikh/Eyegle-Software/internal/log"
)

const (
	// maxConsecutiveFailures is how many failed reads in a row are
	// tolerated before acquisition aborts as fatal.
	maxConsecutiveFailures = 30

	// retryBackoff is the pause after a failed read.
	retryBackoff = 10 * time.Millisecond
)

// Acquirer runs the dedicated acquisition loop: it continuously reads
// frames from the source into the buffer and never blocks waiting for a
// consumer.
type Acquirer struct {
	source FrameSource
	buffer *Buffer
	fps    int

	done chan error
}

// NewAcquirer creates an acquisition loop over the given source.
func NewAcquirer(source FrameSource, buffer *Buffer, fps int) *Acquirer {
	if fps <= 0 {
		fps = 30
	}
	return &Acquirer{
		source: source,
		buffer: buffer,
		fps:    fps,
		done:   make(chan error, 1),
	}
}

// Run reads frames until the context is cancelled or the consecutive
// failure threshold is crossed. It should be called in its own goroutine;
// the outcome is delivered on Done.
func (a *Acquirer) Run(ctx context.Context) {
	frameInterval := time.Second / time.Duration(a.fps)
	failures := 0

	for {
		if ctx.Err() != nil {
			a.done <- nil
			return
		}

		start := time.Now()

		frame, err := a.source.Read()
		if err != nil {
			failures++
			if failures > maxConsecutiveFailures {
				log.Error("camera acquisition aborted", "consecutive_failures", failures)
				a.done <- fmt.Errorf("camera: %d consecutive read failures: %w", failures, err)
				return
			}
			if !sleepCtx(ctx, retryBackoff) {
				a.done <- nil
				return
			}
			continue
		}
		failures = 0

		a.buffer.Push(frame)

		// Pace to the target frame rate.
		if remaining := frameInterval - time.Since(start); remaining > 0 {
			if !sleepCtx(ctx, remaining) {
				a.done <- nil
				return
			}
		}
	}
}

// Done reports the acquisition outcome: nil on clean cancellation, or
// the fatal error that stopped the loop.
func (a *Acquirer) Done() <-chan error {
	return a.done
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
