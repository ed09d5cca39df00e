package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/csschain/go/internal/models"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrBadPayload   = errors.New("malformed event payload")
)

// EventName is the wire name of a server-pushed event.
type EventName string

const (
	EventRoomSnapshot  EventName = "updateRoomState"
	EventGameStart     EventName = "gameStart"
	EventNewTurn       EventName = "newTurn"
	EventTimerTick     EventName = "timerUpdate"
	EventGameFinished  EventName = "gameFinished"
	EventRevealCursor  EventName = "showNextResult"
	EventLobbyReset    EventName = "lobbyReset"
	EventTimerSettings EventName = "timerSettingsUpdate"
	EventError         EventName = "error"
)

// InboundNames lists every event the client subscribes to.
var InboundNames = []EventName{
	EventRoomSnapshot,
	EventGameStart,
	EventNewTurn,
	EventTimerTick,
	EventGameFinished,
	EventRevealCursor,
	EventLobbyReset,
	EventTimerSettings,
	EventError,
}

// Inbound is the closed set of server-pushed events.
type Inbound interface {
	Name() EventName
	isInbound()
}

// RoomSnapshot replaces the whole room state.
type RoomSnapshot struct {
	Room models.RoomState
}

// GameStart opens turn 1 with the given prompt. TotalTurns is zero when the
// server leaves the count to the client.
type GameStart struct {
	Prompt     models.Prompt
	TotalTurns int
}

// NewTurn replaces the active prompt and turn counter.
type NewTurn struct {
	Prompt     models.Prompt
	TurnNumber int
	TotalTurns int
}

// TimerTick carries the server's remaining seconds for the current turn.
type TimerTick struct {
	Seconds int
}

// GameFinished delivers the final results.
type GameFinished struct {
	Results models.GameResults
}

// RevealCursorUpdate moves the shared reveal cursor.
type RevealCursorUpdate struct {
	Cursor models.RevealCursor
}

// LobbyReset returns every member to the lobby.
type LobbyReset struct{}

// TimerSettingsUpdate confirms the turn duration for future games.
type TimerSettingsUpdate struct {
	Settings models.TimerSettings
}

// ServerError is a server-reported failure message.
type ServerError struct {
	Message string
}

func (RoomSnapshot) Name() EventName        { return EventRoomSnapshot }
func (GameStart) Name() EventName           { return EventGameStart }
func (NewTurn) Name() EventName             { return EventNewTurn }
func (TimerTick) Name() EventName           { return EventTimerTick }
func (GameFinished) Name() EventName        { return EventGameFinished }
func (RevealCursorUpdate) Name() EventName  { return EventRevealCursor }
func (LobbyReset) Name() EventName          { return EventLobbyReset }
func (TimerSettingsUpdate) Name() EventName { return EventTimerSettings }
func (ServerError) Name() EventName         { return EventError }

func (RoomSnapshot) isInbound()        {}
func (GameStart) isInbound()           {}
func (NewTurn) isInbound()             {}
func (TimerTick) isInbound()           {}
func (GameFinished) isInbound()        {}
func (RevealCursorUpdate) isInbound()  {}
func (LobbyReset) isInbound()          {}
func (TimerSettingsUpdate) isInbound() {}
func (ServerError) isInbound()         {}

// Decode parses a named event's raw payload into its typed variant.
func Decode(name EventName, data json.RawMessage) (Inbound, error) {
	switch name {
	case EventRoomSnapshot:
		var p models.RoomState
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return RoomSnapshot{Room: p}, nil

	case EventGameStart:
		var p GameStartPayload
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return GameStart{Prompt: p.Prompt, TotalTurns: p.TotalTurns}, nil

	case EventNewTurn:
		var p NewTurnPayload
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return NewTurn{Prompt: p.Prompt, TurnNumber: p.TurnNumber, TotalTurns: p.TotalTurns}, nil

	case EventTimerTick:
		var p TimerTickPayload
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return TimerTick{Seconds: p.Seconds}, nil

	case EventGameFinished:
		var p models.GameResults
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return GameFinished{Results: p}, nil

	case EventRevealCursor:
		var p models.RevealCursor
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return RevealCursorUpdate{Cursor: p}, nil

	case EventLobbyReset:
		return LobbyReset{}, nil

	case EventTimerSettings:
		var p models.TimerSettings
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return TimerSettingsUpdate{Settings: p}, nil

	case EventError:
		var p ErrorPayload
		if err := unmarshal(name, data, &p); err != nil {
			return nil, err
		}
		return ServerError{Message: p.Message}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}

func unmarshal(name EventName, data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s: empty", ErrBadPayload, name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, name, err)
	}
	return nil
}
