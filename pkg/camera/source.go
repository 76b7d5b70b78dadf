// Package camera provides frame acquisition for the Eyegle pipeline:
// a FrameSource abstraction over capture devices, a small bounded frame
// buffer, and the acquisition loop that feeds the processing side.
package camera

import "time"

// Frame is a single captured frame, JPEG-encoded.
type Frame struct {
	JPEG      []byte
	Width     int
	Height    int
	Timestamp time.Time
}

// FrameSource produces frames from a capture device. Read may fail
// transiently; the acquisition loop retries and escalates only after a
// run of consecutive failures.
type FrameSource interface {
	// Read captures the next frame.
	Read() (Frame, error)

	// Close releases the underlying device.
	Close() error
}
