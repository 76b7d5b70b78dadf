package camera

import "sync"

// Buffer is a bounded frame buffer with drop-oldest semantics. The
// producer never blocks: pushing into a full buffer evicts the oldest
// frame. The consumer calls Latest to drain everything buffered and keep
// only the most recent frame.
type Buffer struct {
	mu     sync.Mutex
	frames []Frame
	cap    int
	notify chan struct{}
}

// NewBuffer creates a buffer holding at most capacity frames.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		cap:    capacity,
		notify: make(chan struct{}, 1),
	}
}

// Push adds a frame, evicting the oldest if the buffer is full.
func (b *Buffer) Push(f Frame) {
	b.mu.Lock()
	if len(b.frames) == b.cap {
		b.frames = b.frames[1:]
	}
	b.frames = append(b.frames, f)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Latest drains the buffer and returns only the newest frame. Older
// buffered frames are discarded, never queued for later processing.
// Returns false if the buffer is empty.
func (b *Buffer) Latest() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) == 0 {
		return Frame{}, false
	}
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:0]
	return f, true
}

// Wait returns a channel that receives a signal when a frame arrives.
func (b *Buffer) Wait() <-chan struct{} {
	return b.notify
}

// Len returns the number of buffered frames.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}
