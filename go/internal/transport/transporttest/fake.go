// Package transporttest provides an in-memory transport for tests.
package transporttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcdev12/csschain/go/internal/transport"
)

// Emitted records one outbound emit.
type Emitted struct {
	Name    string
	Payload json.RawMessage
	ack     transport.AckFunc
}

// HasAck reports whether the emit asked for a completion.
func (e Emitted) HasAck() bool { return e.ack != nil }

// Fake is a transport whose traffic is driven by the test.
type Fake struct {
	mu         sync.Mutex
	id         string
	connected  bool
	closed     bool
	connectErr error
	handlers   map[string]transport.Handler
	emitted    []Emitted
	onCount    map[string]int
}

var _ transport.Transport = (*Fake)(nil)

// NewFake returns a connected fake whose local identifier is id.
func NewFake(id string) *Fake {
	return &Fake{
		id:        id,
		connected: true,
		handlers:  make(map[string]transport.Handler),
		onCount:   make(map[string]int),
	}
}

func (f *Fake) ID() string { return f.id }

func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Disconnect simulates a dropped connection.
func (f *Fake) Disconnect() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

// FailConnect makes the next Connect calls return err.
func (f *Fake) FailConnect(err error) {
	f.mu.Lock()
	f.connectErr = err
	f.mu.Unlock()
}

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *Fake) Emit(name string, payload any, ack transport.AckFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return transport.ErrClosed
	}
	if !f.connected {
		return transport.ErrNotConnected
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = b
	}
	f.emitted = append(f.emitted, Emitted{Name: name, Payload: raw, ack: ack})
	return nil
}

func (f *Fake) On(name string, h transport.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h
	f.onCount[name]++
}

func (f *Fake) Off(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, name)
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.connected = false
	return nil
}

// Push delivers a server event to the registered handler, if any.
// It reports whether a handler was registered.
func (f *Fake) Push(name string, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("transporttest: marshal %s: %v", name, err))
	}
	return f.PushRaw(name, raw)
}

// PushRaw delivers already-encoded payload bytes.
func (f *Fake) PushRaw(name string, raw json.RawMessage) bool {
	f.mu.Lock()
	h := f.handlers[name]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(raw)
	return true
}

// Handlers returns the names that currently have a handler.
func (f *Fake) Handlers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.handlers))
	for name := range f.handlers {
		names = append(names, name)
	}
	return names
}

// Registrations counts how many times On was called for name.
func (f *Fake) Registrations(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.onCount[name]
}

// Emitted returns a copy of every emit so far.
func (f *Fake) Emitted() []Emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Emitted, len(f.emitted))
	copy(out, f.emitted)
	return out
}

// Count returns how many times name was emitted.
func (f *Fake) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.emitted {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Last returns the most recent emit of name.
func (f *Fake) Last(name string) (Emitted, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.emitted) - 1; i >= 0; i-- {
		if f.emitted[i].Name == name {
			return f.emitted[i], true
		}
	}
	return Emitted{}, false
}

// Resolve answers the most recent emit of name that asked for an ack.
// It reports whether such an emit existed.
func (f *Fake) Resolve(name string, ack transport.Ack) bool {
	f.mu.Lock()
	var fn transport.AckFunc
	for i := len(f.emitted) - 1; i >= 0; i-- {
		if f.emitted[i].Name == name && f.emitted[i].ack != nil {
			fn = f.emitted[i].ack
			f.emitted[i].ack = nil
			break
		}
	}
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(ack)
	return true
}

// Reset forgets recorded emits.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.emitted = nil
	f.mu.Unlock()
}
