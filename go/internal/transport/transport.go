// Package transport defines the bidirectional named-event channel the game
// client talks to the server through.
package transport

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotConnected = errors.New("transport not connected")
	ErrClosed       = errors.New("transport closed")
)

// Handler receives the raw payload of one pushed event.
type Handler func(data json.RawMessage)

// Ack is the completion of a request/response style emit.
type Ack struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`

	// Raw is the whole ack object as received.
	Raw json.RawMessage `json:"-"`
}

// AckFunc is invoked at most once with the server's answer to an emit.
// It may run on a transport goroutine.
type AckFunc func(Ack)

// DecodeAck parses an ack object and keeps the raw bytes.
func DecodeAck(raw json.RawMessage) (Ack, error) {
	var ack Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		return Ack{}, err
	}
	ack.Raw = raw
	return ack, nil
}

// OK builds a successful ack, mostly for tests and in-process servers.
func OK(data any) Ack {
	ack := Ack{Success: true}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			ack.Data = raw
		}
	}
	ack.Raw, _ = json.Marshal(ack)
	return ack
}

// Fail builds a rejection ack.
func Fail(message string) Ack {
	ack := Ack{Success: false, Message: message}
	ack.Raw, _ = json.Marshal(ack)
	return ack
}

// Transport is a reliable, ordered channel of named events in each
// direction. On replaces any handler already registered for name, so at
// most one handler per event is ever active.
type Transport interface {
	// ID is the local connection's identifier as the server knows it.
	ID() string
	Connected() bool
	Connect(ctx context.Context) error
	// Emit sends a named action. ack may be nil for fire-and-forget actions.
	Emit(name string, payload any, ack AckFunc) error
	On(name string, h Handler)
	Off(name string)
	Close() error
}
