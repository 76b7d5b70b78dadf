// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"
	"time"
)

// Message is an encoded event ready to write to clients.
type Message struct {
	Data []byte
}

// Event kinds broadcast over the events stream.
const (
	EventCursor      = "cursor"
	EventExpression  = "expression"
	EventCalibration = "calibration"
	EventStatus      = "status"
)

// Event is the JSON envelope for every broadcast event.
type Event struct {
	Kind    string      `json:"kind"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload"`
}

// NewEvent wraps a payload in an envelope and encodes it.
func NewEvent(kind string, payload interface{}) (Message, error) {
	data, err := json.Marshal(Event{Kind: kind, Time: time.Now(), Payload: payload})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
