package coordinator

import "github.com/mcdev12/csschain/go/internal/models"

// View is a read-only copy of everything a renderer may show. It shares no
// memory with the coordinator.
type View struct {
	SelfID         string                `json:"selfId"`
	IsHost         bool                  `json:"isHost"`
	Room           *models.RoomState     `json:"room,omitempty"`
	Prompt         *models.Prompt        `json:"prompt,omitempty"`
	Turn           *models.TurnCounter   `json:"turn,omitempty"`
	Timer          *TimerValue           `json:"timer,omitempty"`
	Submission     SubmissionState       `json:"submission"`
	TimerSettings  *models.TimerSettings `json:"timerSettings,omitempty"`
	Results        *models.GameResults   `json:"results,omitempty"`
	Cursor         *models.RevealCursor  `json:"cursor,omitempty"`
	RevealAll      bool                  `json:"revealAll"`
	RevealFinished bool                  `json:"revealFinished"`
	LastError      string                `json:"lastError,omitempty"`
}

// View builds a snapshot of the current state.
func (c *Coordinator) View() View {
	v := View{
		SelfID:         c.SelfID(),
		IsHost:         c.IsHost(),
		Submission:     c.Submission(),
		RevealAll:      c.reveal.all,
		RevealFinished: c.reveal.finished(),
		LastError:      c.lastError,
	}
	if r, ok := c.Room(); ok {
		v.Room = &r
	}
	if p, ok := c.Prompt(); ok {
		v.Prompt = &p
	}
	if t, ok := c.Turn(); ok {
		v.Turn = &t
	}
	if t, ok := c.Timer(); ok {
		v.Timer = &t
	}
	if s, ok := c.TimerSettings(); ok {
		v.TimerSettings = &s
	}
	if r, ok := c.Results(); ok {
		v.Results = &r
	}
	if cur, ok := c.Cursor(); ok {
		v.Cursor = &cur
	}
	return v
}

// StepVisible mirrors Coordinator.StepVisible for a detached view.
func (v View) StepVisible(chainIndex, stepIndex int) bool {
	if v.Results == nil || v.Cursor == nil {
		return false
	}
	if chainIndex < 0 || chainIndex >= len(v.Results.Chains) {
		return false
	}
	if stepIndex < 0 || stepIndex >= len(v.Results.Chains[chainIndex].Steps) {
		return false
	}
	return v.RevealAll || v.Cursor.Shows(chainIndex, stepIndex)
}
