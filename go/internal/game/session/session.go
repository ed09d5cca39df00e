// Package session runs a game coordinator on a single goroutine.
//
// Transport pushes, ack callbacks and caller actions are all posted to one
// inbox and applied in arrival order, so the coordinator never sees two of
// them at once.
package session

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/game/metrics"
	"github.com/mcdev12/csschain/go/internal/transport"
)

var (
	ErrStopped        = errors.New("session stopped")
	ErrAlreadyRunning = errors.New("session already running")
)

// Status describes the session itself rather than the game.
type Status struct {
	Connected   bool      `json:"connected"`
	Version     uint64    `json:"version"`
	LastEventAt time.Time `json:"lastEventAt,omitempty"`
}

type Session struct {
	t       transport.Transport
	cfg     coordinator.Config
	clock   clockwork.Clock
	metrics metrics.Collector
	coord   *coordinator.Coordinator

	inboxSize int
	inbox     chan func()
	done      chan struct{}
	running   atomic.Bool

	updates     chan coordinator.View
	last        *coordinator.View
	version     uint64
	lastEventAt time.Time
}

// New builds a session over t and subscribes to the server's events. Events
// that arrive before Run are queued.
func New(t transport.Transport, opts ...Option) *Session {
	s := &Session{
		t:         t,
		cfg:       coordinator.DefaultConfig(),
		inboxSize: defaultInboxSize,
		done:      make(chan struct{}),
		updates:   make(chan coordinator.View, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	switch {
	case s.clock != nil:
		s.cfg.Clock = s.clock
	case s.cfg.Clock != nil:
		s.clock = s.cfg.Clock
	default:
		s.clock = clockwork.NewRealClock()
		s.cfg.Clock = s.clock
	}
	if s.metrics != nil {
		s.cfg.Metrics = s.metrics
	}
	s.inbox = make(chan func(), s.inboxSize)
	s.coord = coordinator.New(&serialized{inner: t, s: s}, s.cfg)
	s.coord.Attach()
	return s
}

// Run applies queued work until ctx is done, then removes every
// subscription and closes the Updates channel.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	log.Info().Str("connection_id", s.t.ID()).Msg("session started")
	s.publish()

	for {
		select {
		case <-ctx.Done():
			s.coord.Detach()
			close(s.done)
			close(s.updates)
			log.Info().Str("connection_id", s.t.ID()).Msg("session stopped")
			return ctx.Err()

		case fn := <-s.inbox:
			fn()
			s.publish()
		}
	}
}

// Updates delivers a View after each change. A slow reader only ever sees
// the latest View; intermediate ones are dropped.
func (s *Session) Updates() <-chan coordinator.View { return s.updates }

// post queues fn on the loop. It gives up once the session has stopped.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

// call runs fn on the loop and waits for its local result.
func (s *Session) call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	select {
	case s.inbox <- func() { res <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

func (s *Session) publish() {
	v := s.coord.View()
	if s.last != nil && reflect.DeepEqual(*s.last, v) {
		return
	}
	s.last = &v
	s.version++

	select {
	case s.updates <- v:
		return
	default:
	}
	// Replace the unread view with the newer one.
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- v:
	default:
	}
}

// JoinRoom connects the transport if needed and asks to join code as name.
// It returns once the request is sent; the snapshot arrives with the ack.
func (s *Session) JoinRoom(ctx context.Context, code, name string) error {
	if !s.t.Connected() {
		log.Info().Str("room_code", code).Msg("connecting before join")
		if err := s.t.Connect(ctx); err != nil {
			return err
		}
	}
	return s.call(ctx, func() error { return s.coord.JoinRoom(code, name) })
}

func (s *Session) StartGame(ctx context.Context) error {
	return s.call(ctx, s.coord.StartGame)
}

// Edit replaces the edit buffer. The bool is false when the edit was
// ignored because the turn is submitted or not active.
func (s *Session) Edit(ctx context.Context, text string) (bool, error) {
	var ok bool
	err := s.call(ctx, func() error {
		ok = s.coord.Edit(text)
		return nil
	})
	return ok, err
}

func (s *Session) UseSeedCSS(ctx context.Context) (bool, error) {
	var ok bool
	err := s.call(ctx, func() error {
		ok = s.coord.UseSeedCSS()
		return nil
	})
	return ok, err
}

func (s *Session) Submit(ctx context.Context) error {
	return s.call(ctx, s.coord.Submit)
}

func (s *Session) Cancel(ctx context.Context) error {
	return s.call(ctx, s.coord.Cancel)
}

func (s *Session) AdvanceReveal(ctx context.Context) error {
	return s.call(ctx, s.coord.AdvanceReveal)
}

func (s *Session) ReturnToLobby(ctx context.Context) error {
	return s.call(ctx, s.coord.ReturnToLobby)
}

func (s *Session) UpdateTimerSettings(ctx context.Context, durationSec int) error {
	return s.call(ctx, func() error { return s.coord.UpdateTimerSettings(durationSec) })
}

func (s *Session) SetRevealAll(ctx context.Context, on bool) error {
	return s.call(ctx, func() error {
		s.coord.SetRevealAll(on)
		return nil
	})
}

func (s *Session) ClearError(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.coord.ClearError()
		return nil
	})
}

// View returns a detached copy of the current state.
func (s *Session) View(ctx context.Context) (coordinator.View, error) {
	var v coordinator.View
	err := s.call(ctx, func() error {
		v = s.coord.View()
		return nil
	})
	return v, err
}

func (s *Session) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.call(ctx, func() error {
		st = Status{Connected: s.t.Connected(), Version: s.version, LastEventAt: s.lastEventAt}
		return nil
	})
	return st, err
}
