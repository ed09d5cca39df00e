package events

import (
	"encoding/json"

	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
)

// ActionName is the wire name of a client-initiated action.
type ActionName string

const (
	ActionJoinRoom            ActionName = "joinRoom"
	ActionStartGame           ActionName = "startGame"
	ActionSubmitCSS           ActionName = "submitCss"
	ActionCancelSubmit        ActionName = "cancelSubmit"
	ActionAdvanceReveal       ActionName = "nextResultStep"
	ActionReturnToLobby       ActionName = "returnToLobby"
	ActionUpdateTimerSettings ActionName = "updateTimerSettings"
)

// Action is the closed set of outbound actions. Payload is what goes on the
// wire; nil means the action carries no arguments.
type Action interface {
	Name() ActionName
	Payload() any
	isAction()
}

type JoinRoom struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"name"`
}

type StartGame struct{}

type SubmitCSS struct {
	CSS string `json:"css"`
}

type CancelSubmit struct{}

type AdvanceReveal struct{}

type ReturnToLobby struct{}

type UpdateTimerSettings struct {
	DurationSec int `json:"durationSeconds"`
}

func (JoinRoom) Name() ActionName            { return ActionJoinRoom }
func (StartGame) Name() ActionName           { return ActionStartGame }
func (SubmitCSS) Name() ActionName           { return ActionSubmitCSS }
func (CancelSubmit) Name() ActionName        { return ActionCancelSubmit }
func (AdvanceReveal) Name() ActionName       { return ActionAdvanceReveal }
func (ReturnToLobby) Name() ActionName       { return ActionReturnToLobby }
func (UpdateTimerSettings) Name() ActionName { return ActionUpdateTimerSettings }

func (a JoinRoom) Payload() any            { return a }
func (StartGame) Payload() any             { return nil }
func (a SubmitCSS) Payload() any           { return a }
func (CancelSubmit) Payload() any          { return nil }
func (AdvanceReveal) Payload() any         { return nil }
func (ReturnToLobby) Payload() any         { return nil }
func (a UpdateTimerSettings) Payload() any { return a }

func (JoinRoom) isAction()            {}
func (StartGame) isAction()           {}
func (SubmitCSS) isAction()           {}
func (CancelSubmit) isAction()        {}
func (AdvanceReveal) isAction()       {}
func (ReturnToLobby) isAction()       {}
func (UpdateTimerSettings) isAction() {}

// JoinedRoom extracts the room snapshot from a successful joinRoom ack.
// Servers answer either {"success":true,"roomState":{...}} or wrap the
// snapshot in data.
func JoinedRoom(a transport.Ack) (models.RoomState, bool) {
	for _, raw := range []json.RawMessage{a.Raw, a.Data} {
		if len(raw) == 0 {
			continue
		}
		var wrapped struct {
			RoomState *models.RoomState `json:"roomState"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.RoomState != nil {
			return *wrapped.RoomState, true
		}
	}
	if len(a.Data) == 0 {
		return models.RoomState{}, false
	}
	var room models.RoomState
	if err := json.Unmarshal(a.Data, &room); err != nil || room.RoomCode == "" {
		return models.RoomState{}, false
	}
	return room, true
}
