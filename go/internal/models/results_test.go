package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func results(stepsPerChain ...int) GameResults {
	var g GameResults
	for _, n := range stepsPerChain {
		c := Chain{}
		for i := 0; i < n; i++ {
			c.Steps = append(c.Steps, Step{SubmittedCSS: "x"})
		}
		g.Chains = append(g.Chains, c)
	}
	return g
}

func TestRevealCursor_Shows(t *testing.T) {
	c := RevealCursor{ChainIndex: 1, StepIndex: 0}

	assert.True(t, c.Shows(0, 0))
	assert.True(t, c.Shows(0, 5))
	assert.True(t, c.Shows(1, 0))
	assert.False(t, c.Shows(1, 1))
	assert.False(t, c.Shows(2, 0))

	assert.False(t, BeforeFirstStep.Shows(0, 0))
	assert.True(t, BeforeFirstStep.IsSentinel())
}

func TestRevealCursor_Before(t *testing.T) {
	assert.True(t, BeforeFirstStep.Before(RevealCursor{0, 0}))
	assert.True(t, RevealCursor{0, 3}.Before(RevealCursor{1, 0}))
	assert.False(t, RevealCursor{1, 0}.Before(RevealCursor{0, 3}))
	assert.False(t, RevealCursor{1, 1}.Before(RevealCursor{1, 1}))
}

func TestGameResults_Next(t *testing.T) {
	g := results(2, 0, 1)

	walk := []RevealCursor{BeforeFirstStep}
	for {
		next, ok := g.Next(walk[len(walk)-1])
		if !ok {
			break
		}
		walk = append(walk, next)
	}

	assert.Equal(t, []RevealCursor{BeforeFirstStep, {0, 0}, {0, 1}, {2, 0}}, walk)
	assert.True(t, g.Finished(RevealCursor{2, 0}))
	assert.False(t, g.Finished(RevealCursor{0, 1}))
}

func TestGameResults_EmptyIsFinished(t *testing.T) {
	assert.True(t, GameResults{}.Finished(BeforeFirstStep))
	assert.True(t, results(0, 0).Finished(BeforeFirstStep))
}

func TestGameResults_Resolves(t *testing.T) {
	g := results(2, 1)
	assert.True(t, g.Resolves(BeforeFirstStep))
	assert.True(t, g.Resolves(RevealCursor{1, 0}))
	assert.False(t, g.Resolves(RevealCursor{1, 1}))
	assert.False(t, g.Resolves(RevealCursor{2, 0}))
	assert.False(t, g.Resolves(RevealCursor{0, -2}))
	assert.Equal(t, 3, g.TotalSteps())
}

func TestTurnCounter(t *testing.T) {
	assert.True(t, TurnCounter{Number: 1, Total: 1}.Valid())
	assert.True(t, TurnCounter{Number: 3, Total: 3}.Last())
	assert.False(t, TurnCounter{Number: 0, Total: 3}.Valid())
	assert.False(t, TurnCounter{Number: 4, Total: 3}.Valid())

	assert.Equal(t, TurnCounter{Number: 4, Total: 4}, TurnCounter{Number: 4, Total: 3}.Clamp())
	assert.Equal(t, TurnCounter{Number: 1, Total: 1}, TurnCounter{Number: -2, Total: 0}.Clamp())
	assert.Equal(t, TurnCounter{Number: 2, Total: 5}, TurnCounter{Number: 2, Total: 5}.Clamp())
}

func TestRoomState(t *testing.T) {
	r := RoomState{RoomCode: "R", HostID: "a", Phase: PhaseLobby, Users: []User{{ID: "a", Name: "Ann"}, {ID: "b", Name: "Bo"}}}

	assert.True(t, r.IsHost("a"))
	assert.False(t, r.IsHost("b"))
	u, ok := r.User("b")
	assert.True(t, ok)
	assert.Equal(t, "Bo", u.Name)

	clone := r.Clone()
	clone.Users[0].Name = "changed"
	assert.Equal(t, "Ann", r.Users[0].Name)

	assert.True(t, PhaseResults.Valid())
	assert.False(t, Phase("LOADING").Valid())
}
