package transport

import "sync"

// Scope is a set of subscriptions acquired together and released together.
type Scope struct {
	t     Transport
	names []string
	once  sync.Once
}

// Acquire registers every handler on t and returns the scope owning them.
func Acquire(t Transport, handlers map[string]Handler) *Scope {
	s := &Scope{t: t, names: make([]string, 0, len(handlers))}
	for name, h := range handlers {
		t.On(name, h)
		s.names = append(s.names, name)
	}
	return s
}

// Names returns the event names held by the scope.
func (s *Scope) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Release removes every handler the scope registered. Safe to call twice.
func (s *Scope) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		for _, name := range s.names {
			s.t.Off(name)
		}
	})
}
