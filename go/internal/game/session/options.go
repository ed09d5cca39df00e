package session

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/game/metrics"
)

const defaultInboxSize = 64

// Option configures a Session.
type Option func(*Session)

// WithConfig replaces the coordinator configuration. WithClock and
// WithMetrics take precedence over the matching fields of cfg.
func WithConfig(cfg coordinator.Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithMetrics sets the collector used by the coordinator.
func WithMetrics(m metrics.Collector) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock sets the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithInboxSize sets how many pending pushes, acks and actions the loop
// buffers before senders block.
func WithInboxSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.inboxSize = n
		}
	}
}
