package coordinator

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/models"
)

// revealer holds the finished game's results and the shared cursor. The
// cursor only moves when the server says so.
type revealer struct {
	results *models.GameResults
	cursor  models.RevealCursor
	// all is the viewer's local "show everything" override.
	all bool
}

func (r *revealer) reset() {
	r.results = nil
	r.cursor = models.BeforeFirstStep
	r.all = false
}

func (r *revealer) visible(chainIndex, stepIndex int) bool {
	if r.results == nil {
		return false
	}
	if chainIndex < 0 || chainIndex >= len(r.results.Chains) {
		return false
	}
	if stepIndex < 0 || stepIndex >= len(r.results.Chains[chainIndex].Steps) {
		return false
	}
	return r.all || r.cursor.Shows(chainIndex, stepIndex)
}

func (r *revealer) finished() bool {
	return r.results != nil && r.results.Finished(r.cursor)
}

func (c *Coordinator) applyGameFinished(e events.GameFinished) bool {
	res := e.Results.Clone()
	c.reveal.results = &res
	c.reveal.cursor = models.BeforeFirstStep
	c.reveal.all = false
	log.Info().
		Str("room_code", c.roomCode()).
		Int("chains", len(res.Chains)).
		Int("steps", res.TotalSteps()).
		Msg("game finished")
	return true
}

func (c *Coordinator) applyRevealCursor(e events.RevealCursorUpdate) bool {
	cur := e.Cursor
	switch {
	case c.reveal.results == nil:
		log.Warn().
			Int("chain_index", cur.ChainIndex).
			Int("step_index", cur.StepIndex).
			Msg("dropping reveal cursor without results")
		return false
	case !c.reveal.results.Resolves(cur):
		log.Warn().
			Int("chain_index", cur.ChainIndex).
			Int("step_index", cur.StepIndex).
			Msg("dropping reveal cursor outside results")
		return false
	case cur.Before(c.reveal.cursor):
		log.Debug().
			Int("chain_index", cur.ChainIndex).
			Int("step_index", cur.StepIndex).
			Msg("dropping stale reveal cursor")
		return false
	}
	c.reveal.cursor = cur
	return true
}

// AdvanceReveal asks the server to unlock one more step. Host only; a no-op
// once the last step of the last chain is shown. The local cursor is not
// moved until the server pushes it.
func (c *Coordinator) AdvanceReveal() error {
	if err := c.requireHost(); err != nil {
		return err
	}
	if c.reveal.results == nil {
		return ErrNoResults
	}
	if c.reveal.finished() {
		return nil
	}
	return c.emit(events.AdvanceReveal{}, nil)
}

// SetRevealAll toggles the local override that shows every step regardless
// of the shared cursor. Other players are unaffected.
func (c *Coordinator) SetRevealAll(on bool) {
	c.reveal.all = on
}

// StepVisible reports whether the step at (chainIndex, stepIndex) may be
// displayed.
func (c *Coordinator) StepVisible(chainIndex, stepIndex int) bool {
	return c.reveal.visible(chainIndex, stepIndex)
}

// VisibleSteps returns the displayable steps of one chain, in order.
func (c *Coordinator) VisibleSteps(chainIndex int) []models.Step {
	if c.reveal.results == nil || chainIndex < 0 || chainIndex >= len(c.reveal.results.Chains) {
		return nil
	}
	var out []models.Step
	for i, s := range c.reveal.results.Chains[chainIndex].Steps {
		if c.reveal.visible(chainIndex, i) {
			out = append(out, s)
		}
	}
	return out
}

// NextCursor returns the position the next advance should unlock, skipping
// chains without steps.
func (c *Coordinator) NextCursor() (models.RevealCursor, bool) {
	if c.reveal.results == nil {
		return models.RevealCursor{}, false
	}
	return c.reveal.results.Next(c.reveal.cursor)
}

// RevealFinished reports whether every step has been unlocked.
func (c *Coordinator) RevealFinished() bool {
	return c.reveal.finished()
}
