// Package expression classifies blink gestures from eye-opening ratios,
// relative to a per-user baseline established at startup.
package expression

import "time"

// Kind is a classified expression.
type Kind string

const (
	None      Kind = "none"
	BlinkLeft Kind = "blink_left"
	// BlinkRight is a quick closure of the right eye with the left open.
	BlinkRight    Kind = "blink_right"
	BlinkBoth     Kind = "blink_both"
	BlinkBothLong Kind = "blink_both_long"
)

// State is the most recently classified event. Events are emitted only
// on classification, not every frame.
type State struct {
	Kind       Kind          `json:"kind"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"duration"`
	StartTime  time.Time     `json:"start_time"`
}
