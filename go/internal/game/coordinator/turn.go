package coordinator

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
)

// SubmissionState is the local player's status for the current turn.
type SubmissionState struct {
	Buffer    string `json:"buffer"`
	Submitted bool   `json:"submitted"`
}

// turnCoordinator owns the active prompt and the player's edit buffer.
//
// seq identifies the turn and attempt identifies the latest submit within
// it; a late ack only rolls back the flag when both still match.
type turnCoordinator struct {
	prompt    *models.Prompt
	counter   *models.TurnCounter
	buffer    string
	submitted bool

	seq     uint64
	attempt uint64
}

func (t *turnCoordinator) startOrAdvance(prompt models.Prompt, number, total int) {
	p := prompt
	t.prompt = &p
	t.counter = &models.TurnCounter{Number: number, Total: total}
	t.buffer = ""
	t.submitted = false
	t.seq++
	t.attempt = 0
}

func (t *turnCoordinator) reset() {
	t.prompt = nil
	t.counter = nil
	t.buffer = ""
	t.submitted = false
	t.seq++
	t.attempt = 0
}

func (t *turnCoordinator) edit(text string) bool {
	if t.submitted || t.prompt == nil {
		return false
	}
	t.buffer = text
	return true
}

func (t *turnCoordinator) number() int {
	if t.counter == nil {
		return 0
	}
	return t.counter.Number
}

func (c *Coordinator) applyGameStart(e events.GameStart) bool {
	total := e.TotalTurns
	if total <= 0 {
		// Room size at the moment the event is handled.
		total = c.phase.size()
	}
	if total < 1 {
		total = 1
	}
	c.turn.startOrAdvance(e.Prompt, 1, total)
	c.timer.reset()
	c.reveal.reset()
	log.Info().
		Str("room_code", c.roomCode()).
		Int("total_turns", total).
		Msg("game started")
	return true
}

func (c *Coordinator) applyNewTurn(e events.NewTurn) bool {
	counter := models.TurnCounter{Number: e.TurnNumber, Total: e.TotalTurns}
	if !counter.Valid() {
		log.Warn().
			Int("turn", e.TurnNumber).
			Int("total_turns", e.TotalTurns).
			Msg("clamping new turn with invalid counter")
		counter = counter.Clamp()
	}
	c.turn.startOrAdvance(e.Prompt, counter.Number, counter.Total)
	c.timer.reset()
	log.Debug().
		Str("room_code", c.roomCode()).
		Int("turn", counter.Number).
		Int("total_turns", counter.Total).
		Msg("turn advanced")
	return true
}

// Edit replaces the edit buffer. It reports false when the turn is already
// submitted or there is no active turn, in which case nothing changes.
func (c *Coordinator) Edit(text string) bool {
	return c.turn.edit(text)
}

// UseSeedCSS copies the prompt's seed CSS into the edit buffer.
func (c *Coordinator) UseSeedCSS() bool {
	if c.turn.prompt == nil {
		return false
	}
	return c.turn.edit(c.turn.prompt.SeedCSS)
}

// Submit sends the edit buffer for the current turn. The submitted flag is
// set before the server answers; a rejection clears it again and records
// the reason as the last error. Submitting an already submitted turn does
// nothing.
func (c *Coordinator) Submit() error {
	return c.submit(false)
}

func (c *Coordinator) submit(auto bool) error {
	if c.turn.prompt == nil {
		return ErrNoActiveTurn
	}
	if c.turn.submitted {
		return nil
	}

	c.turn.submitted = true
	c.turn.attempt++
	seq, attempt := c.turn.seq, c.turn.attempt
	turn := c.turn.number()

	err := c.emit(events.SubmitCSS{CSS: c.turn.buffer}, func(ack transport.Ack) {
		if ack.Success {
			return
		}
		c.setError(ack.Message)
		if c.turn.seq != seq || c.turn.attempt != attempt {
			log.Debug().Int("turn", turn).Msg("ignoring rejection for a superseded submission")
			return
		}
		c.turn.submitted = false
		log.Info().Int("turn", turn).Str("reason", ack.Message).Msg("submission rejected")
	})
	if err != nil {
		c.turn.submitted = false
		return err
	}

	log.Info().Int("turn", turn).Bool("auto", auto).Msg("css submitted")
	if auto {
		c.cfg.Metrics.RecordAutoSubmit(turn)
	}
	return nil
}

// Cancel withdraws a submission. It does not wait for the server, which
// may still refuse a late cancel. Cancelling an unsubmitted turn sends
// nothing.
func (c *Coordinator) Cancel() error {
	if !c.turn.submitted {
		return nil
	}
	c.turn.submitted = false
	c.turn.attempt++
	if err := c.emit(events.CancelSubmit{}, nil); err != nil {
		log.Warn().Err(err).Int("turn", c.turn.number()).Msg("cancel not delivered")
		return err
	}
	return nil
}
