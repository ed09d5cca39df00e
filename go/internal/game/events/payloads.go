package events

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/csschain/go/internal/models"
)

// Wire payloads for events whose shape differs from the model they carry.
// The server emits some events as positional arguments, so each payload
// accepts both the positional and the keyed form.

// GameStartPayload is either a bare prompt or {"prompt": ..., "totalTurns": n}.
type GameStartPayload struct {
	Prompt     models.Prompt `json:"prompt"`
	TotalTurns int           `json:"totalTurns,omitempty"`
}

func (p *GameStartPayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if _, wrapped := fields["prompt"]; wrapped {
		type keyed GameStartPayload
		var k keyed
		if err := json.Unmarshal(data, &k); err != nil {
			return err
		}
		*p = GameStartPayload(k)
		return nil
	}
	*p = GameStartPayload{}
	return json.Unmarshal(data, &p.Prompt)
}

// NewTurnPayload is [prompt, turnNumber, totalTurns] or the keyed object.
type NewTurnPayload struct {
	Prompt     models.Prompt `json:"prompt"`
	TurnNumber int           `json:"turnNumber"`
	TotalTurns int           `json:"totalTurns"`
}

func (p *NewTurnPayload) UnmarshalJSON(data []byte) error {
	if isArray(data) {
		var args []json.RawMessage
		if err := json.Unmarshal(data, &args); err != nil {
			return err
		}
		if len(args) != 3 {
			return fmt.Errorf("want 3 arguments, got %d", len(args))
		}
		if err := json.Unmarshal(args[0], &p.Prompt); err != nil {
			return err
		}
		if err := json.Unmarshal(args[1], &p.TurnNumber); err != nil {
			return err
		}
		return json.Unmarshal(args[2], &p.TotalTurns)
	}
	type keyed NewTurnPayload
	var k keyed
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	*p = NewTurnPayload(k)
	return nil
}

// TimerTickPayload is a bare integer or {"seconds": n}.
type TimerTickPayload struct {
	Seconds int `json:"seconds"`
}

func (p *TimerTickPayload) UnmarshalJSON(data []byte) error {
	if isObject(data) {
		type keyed TimerTickPayload
		var k keyed
		if err := json.Unmarshal(data, &k); err != nil {
			return err
		}
		*p = TimerTickPayload(k)
		return nil
	}
	return json.Unmarshal(data, &p.Seconds)
}

// ErrorPayload is {"message": "..."} or a bare string.
type ErrorPayload struct {
	Message string `json:"message"`
}

func (p *ErrorPayload) UnmarshalJSON(data []byte) error {
	if isObject(data) {
		type keyed ErrorPayload
		var k keyed
		if err := json.Unmarshal(data, &k); err != nil {
			return err
		}
		*p = ErrorPayload(k)
		return nil
	}
	return json.Unmarshal(data, &p.Message)
}

func isArray(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
}

func isObject(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}
