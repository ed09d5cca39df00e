package coordinator

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
)

// phaseTracker holds the latest room snapshot. Snapshots replace each other
// wholesale; nothing from an older snapshot survives a newer one.
type phaseTracker struct {
	room *models.RoomState
}

func (p *phaseTracker) replace(room models.RoomState) (from models.Phase) {
	if p.room != nil {
		from = p.room.Phase
	}
	r := room.Clone()
	p.room = &r
	return from
}

// toLobby forces the phase to LOBBY while keeping membership.
func (p *phaseTracker) toLobby() {
	if p.room == nil {
		return
	}
	r := p.room.Clone()
	r.Phase = models.PhaseLobby
	p.room = &r
}

func (p *phaseTracker) phase() models.Phase {
	if p.room == nil {
		return ""
	}
	return p.room.Phase
}

func (p *phaseTracker) size() int {
	if p.room == nil {
		return 0
	}
	return len(p.room.Users)
}

func (c *Coordinator) applyRoomSnapshot(e events.RoomSnapshot) bool {
	if !e.Room.Phase.Valid() {
		log.Warn().
			Str("room_code", e.Room.RoomCode).
			Str("phase", string(e.Room.Phase)).
			Msg("dropping room snapshot with unknown phase")
		return false
	}
	from := c.phase.replace(e.Room)
	if from != e.Room.Phase {
		log.Info().
			Str("room_code", e.Room.RoomCode).
			Str("from", string(from)).
			Str("to", string(e.Room.Phase)).
			Int("users", len(e.Room.Users)).
			Msg("room phase changed")
	}
	return true
}

// applyLobbyReset empties every game-scoped sub-state in one step so the
// lobby never shows a stale prompt, timer or result.
func (c *Coordinator) applyLobbyReset() bool {
	c.phase.toLobby()
	c.turn.reset()
	c.timer.reset()
	c.reveal.reset()
	log.Info().Str("room_code", c.roomCode()).Msg("returned to lobby")
	return true
}

// JoinRoom asks the server to add this client to roomCode under name.
func (c *Coordinator) JoinRoom(roomCode, name string) error {
	if roomCode == "" || name == "" {
		return ErrMissingJoinFields
	}
	return c.emit(events.JoinRoom{RoomCode: roomCode, PlayerName: name}, func(ack transport.Ack) {
		if !ack.Success {
			c.setError(ack.Message)
			return
		}
		room, ok := events.JoinedRoom(ack)
		if !ok {
			log.Warn().Str("room_code", roomCode).Msg("join acknowledged without room state")
			return
		}
		c.applyRoomSnapshot(events.RoomSnapshot{Room: room})
	})
}

// StartGame asks the server to start the game. Host only, from the lobby,
// with enough players.
func (c *Coordinator) StartGame() error {
	if err := c.requireHost(); err != nil {
		return err
	}
	if c.phase.phase() != models.PhaseLobby {
		return ErrWrongPhase
	}
	if c.phase.size() < c.cfg.MinPlayers {
		return ErrNotEnoughPlayers
	}
	return c.emit(events.StartGame{}, func(ack transport.Ack) {
		if !ack.Success {
			c.setError(startFailedMessage)
		}
	})
}

// ReturnToLobby asks the server to send everyone back to the lobby. The
// reset itself arrives as a push.
func (c *Coordinator) ReturnToLobby() error {
	if err := c.requireHost(); err != nil {
		return err
	}
	return c.emit(events.ReturnToLobby{}, nil)
}

func (c *Coordinator) requireHost() error {
	if c.phase.room == nil {
		return ErrNotJoined
	}
	if !c.IsHost() {
		return ErrNotHost
	}
	return nil
}

func (c *Coordinator) roomCode() string {
	if c.phase.room == nil {
		return ""
	}
	return c.phase.room.RoomCode
}
