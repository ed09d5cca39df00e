package models

// Phase defines the room-level mode.
type Phase string

const (
	PhaseLobby   Phase = "LOBBY"
	PhaseInGame  Phase = "IN_GAME"
	PhaseResults Phase = "RESULTS"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseInGame, PhaseResults:
		return true
	}
	return false
}

// RoomState is the server's full snapshot of a room.
type RoomState struct {
	RoomCode string `json:"roomCode"`
	HostID   string `json:"hostId"`
	Phase    Phase  `json:"gameState"`
	Users    []User `json:"users"`
}

// Clone returns a deep copy so callers never share the Users slice.
func (r RoomState) Clone() RoomState {
	out := r
	if r.Users != nil {
		out.Users = make([]User, len(r.Users))
		copy(out.Users, r.Users)
	}
	return out
}

// User finds a member by identifier.
func (r RoomState) User(id string) (User, bool) {
	for _, u := range r.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// IsHost reports whether id is the room's host.
func (r RoomState) IsHost(id string) bool {
	return id != "" && r.HostID == id
}
