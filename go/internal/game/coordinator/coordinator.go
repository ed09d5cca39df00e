// Package coordinator keeps the game client's local state in step with the
// server's pushed events and arbitrates the player's actions against them.
//
// A Coordinator is not safe for concurrent use. Its handlers, ack callbacks
// and actions must run one at a time; session.Session provides that loop.
package coordinator

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
)

const genericErrorMessage = "Request failed."

// Coordinator owns the phase tracker, turn coordinator, timer arbiter and
// results revealer for one client session.
type Coordinator struct {
	t     transport.Transport
	cfg   Config
	scope *transport.Scope

	phase  phaseTracker
	turn   turnCoordinator
	timer  timerArbiter
	reveal revealer

	settings  *models.TimerSettings
	lastError string
}

// New creates a coordinator talking through t. Call Attach to start
// receiving events.
func New(t transport.Transport, cfg Config) *Coordinator {
	c := &Coordinator{
		t:   t,
		cfg: cfg.withDefaults(),
	}
	c.reveal.reset()
	return c
}

// Attach subscribes to every inbound event, replacing any subscriptions a
// previous Attach made.
func (c *Coordinator) Attach() {
	c.scope.Release()
	handlers := make(map[string]transport.Handler, len(events.InboundNames))
	for _, name := range events.InboundNames {
		handlers[string(name)] = func(data json.RawMessage) {
			c.handle(name, data)
		}
	}
	c.scope = transport.Acquire(c.t, handlers)
	log.Debug().Int("events", len(handlers)).Msg("coordinator attached")
}

// Detach removes every subscription made by Attach.
func (c *Coordinator) Detach() {
	c.scope.Release()
	c.scope = nil
}

func (c *Coordinator) handle(name events.EventName, data json.RawMessage) {
	evt, err := events.Decode(name, data)
	if err != nil {
		log.Warn().Err(err).Str("event", string(name)).Msg("dropping undecodable event")
		c.cfg.Metrics.RecordEventApplied(string(name), false)
		return
	}
	c.Apply(evt)
}

// Apply reconciles one server event into local state. It reports whether
// the event changed anything; stale or invalid events are dropped.
func (c *Coordinator) Apply(evt events.Inbound) bool {
	if evt == nil {
		return false
	}

	var ok bool
	switch e := evt.(type) {
	case events.RoomSnapshot:
		ok = c.applyRoomSnapshot(e)
	case events.GameStart:
		ok = c.applyGameStart(e)
	case events.NewTurn:
		ok = c.applyNewTurn(e)
	case events.TimerTick:
		ok = c.applyTimerTick(e)
	case events.GameFinished:
		ok = c.applyGameFinished(e)
	case events.RevealCursorUpdate:
		ok = c.applyRevealCursor(e)
	case events.LobbyReset:
		ok = c.applyLobbyReset()
	case events.TimerSettingsUpdate:
		ok = c.applyTimerSettings(e)
	case events.ServerError:
		c.setError(e.Message)
		ok = true
	default:
		log.Warn().Str("event", string(evt.Name())).Msg("no handler for event")
	}

	c.cfg.Metrics.RecordEventApplied(string(evt.Name()), ok)
	log.Debug().Str("event", string(evt.Name())).Bool("applied", ok).Msg("event handled")
	return ok
}

// emit sends a, wrapping onAck with metrics. onAck nil means fire-and-forget.
func (c *Coordinator) emit(a events.Action, onAck func(transport.Ack)) error {
	name := string(a.Name())

	var ackFn transport.AckFunc
	if onAck != nil {
		sent := c.cfg.Clock.Now()
		ackFn = func(ack transport.Ack) {
			c.cfg.Metrics.RecordAck(name, ack.Success, c.cfg.Clock.Since(sent))
			if !ack.Success {
				log.Debug().Str("action", name).Str("reason", ack.Message).Msg("action rejected")
			}
			onAck(ack)
		}
	}

	if err := c.t.Emit(name, a.Payload(), ackFn); err != nil {
		return fmt.Errorf("emit %s: %w", name, err)
	}
	c.cfg.Metrics.RecordActionEmitted(name)
	return nil
}

func (c *Coordinator) setError(msg string) {
	if msg == "" {
		msg = genericErrorMessage
	}
	c.lastError = msg
}

// LastError returns the most recent failure message, or "".
func (c *Coordinator) LastError() string { return c.lastError }

// ClearError empties the last-error slot.
func (c *Coordinator) ClearError() { c.lastError = "" }

// SelfID is the local player's identifier.
func (c *Coordinator) SelfID() string { return c.t.ID() }

// IsHost reports whether the local player hosts the current room.
func (c *Coordinator) IsHost() bool {
	return c.phase.room != nil && c.phase.room.IsHost(c.t.ID())
}

// Room returns the latest room snapshot.
func (c *Coordinator) Room() (models.RoomState, bool) {
	if c.phase.room == nil {
		return models.RoomState{}, false
	}
	return c.phase.room.Clone(), true
}

// Phase returns the room phase, or "" before joining.
func (c *Coordinator) Phase() models.Phase { return c.phase.phase() }

// Prompt returns the active prompt.
func (c *Coordinator) Prompt() (models.Prompt, bool) {
	if c.turn.prompt == nil {
		return models.Prompt{}, false
	}
	return *c.turn.prompt, true
}

// Turn returns the active turn counter.
func (c *Coordinator) Turn() (models.TurnCounter, bool) {
	if c.turn.counter == nil {
		return models.TurnCounter{}, false
	}
	return *c.turn.counter, true
}

// Timer returns the latest timer value.
func (c *Coordinator) Timer() (TimerValue, bool) {
	if c.timer.value == nil {
		return TimerValue{}, false
	}
	return *c.timer.value, true
}

// Submission returns the edit buffer and submitted flag.
func (c *Coordinator) Submission() SubmissionState {
	return SubmissionState{Buffer: c.turn.buffer, Submitted: c.turn.submitted}
}

// TimerSettings returns the most recently confirmed settings.
func (c *Coordinator) TimerSettings() (models.TimerSettings, bool) {
	if c.settings == nil {
		return models.TimerSettings{}, false
	}
	return *c.settings, true
}

// Results returns the finished game's results.
func (c *Coordinator) Results() (models.GameResults, bool) {
	if c.reveal.results == nil {
		return models.GameResults{}, false
	}
	return c.reveal.results.Clone(), true
}

// Cursor returns the shared reveal cursor. It is only meaningful while
// results are held.
func (c *Coordinator) Cursor() (models.RevealCursor, bool) {
	if c.reveal.results == nil {
		return models.RevealCursor{}, false
	}
	return c.reveal.cursor, true
}

// RevealAll reports whether the local show-everything override is on.
func (c *Coordinator) RevealAll() bool { return c.reveal.all }
