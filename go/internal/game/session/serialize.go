package session

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/csschain/go/internal/transport"
)

// serialized wraps a transport so that every push handler and ack callback
// runs on the session loop instead of the transport's own goroutines.
type serialized struct {
	inner transport.Transport
	s     *Session
}

var _ transport.Transport = (*serialized)(nil)

func (w *serialized) ID() string      { return w.inner.ID() }
func (w *serialized) Connected() bool { return w.inner.Connected() }
func (w *serialized) Close() error    { return w.inner.Close() }
func (w *serialized) Off(name string) { w.inner.Off(name) }

func (w *serialized) Connect(ctx context.Context) error {
	return w.inner.Connect(ctx)
}

func (w *serialized) Emit(name string, payload any, ack transport.AckFunc) error {
	if ack == nil {
		return w.inner.Emit(name, payload, nil)
	}
	return w.inner.Emit(name, payload, func(a transport.Ack) {
		w.s.post(func() { ack(a) })
	})
}

func (w *serialized) On(name string, h transport.Handler) {
	w.inner.On(name, func(data json.RawMessage) {
		w.s.post(func() {
			w.s.lastEventAt = w.s.clock.Now()
			h(data)
		})
	})
}
