package camera

import (
	"fmt"
	"sync"
	"time"
)

// MockSource is a scripted FrameSource for testing. It replays a fixed
// sequence of frames and optional injected failures.
type MockSource struct {
	mu       sync.Mutex
	frames   []Frame
	failures int // Read errors to return before serving frames
	index    int
	closed   bool
}

// NewMockSource creates a mock source replaying the given frames in
// order, repeating the last frame once the sequence is exhausted.
func NewMockSource(frames ...Frame) *MockSource {
	return &MockSource{frames: frames}
}

// FailNext makes the next n Read calls fail.
func (m *MockSource) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

// Read returns the next scripted frame or an injected failure.
func (m *MockSource) Read() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Frame{}, fmt.Errorf("mock: source closed")
	}
	if m.failures > 0 {
		m.failures--
		return Frame{}, fmt.Errorf("mock: injected read failure")
	}
	if len(m.frames) == 0 {
		return Frame{}, fmt.Errorf("mock: no frames scripted")
	}

	f := m.frames[m.index]
	if m.index < len(m.frames)-1 {
		m.index++
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	return f, nil
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
