package coordinator

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/events"
)

// TimerValue is the server's remaining time for the current turn.
type TimerValue struct {
	// Raw is the value as pushed; it may be negative transiently.
	Raw int `json:"raw"`
	// Display runs ahead of Raw by the configured offset to absorb
	// submission latency.
	Display    int       `json:"display"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// timerArbiter stores ticks and decides when the timer forces a submit.
type timerArbiter struct {
	value *TimerValue
	// fired is set once the timer has forced a submission this turn.
	fired bool
}

func (a *timerArbiter) reset() {
	a.value = nil
	a.fired = false
}

func (a *timerArbiter) observe(raw, offset int, at time.Time) {
	a.value = &TimerValue{Raw: raw, Display: raw - offset, ReceivedAt: at}
}

// shouldForce reports whether a tick of raw seconds must force a submit.
func (a *timerArbiter) shouldForce(raw, lead int, submitted bool) bool {
	return raw < lead && !submitted && !a.fired
}

func (c *Coordinator) applyTimerTick(e events.TimerTick) bool {
	c.timer.observe(e.Seconds, c.cfg.DisplayOffsetSec, c.cfg.Clock.Now())

	if c.turn.prompt == nil {
		return true
	}
	if !c.timer.shouldForce(e.Seconds, c.cfg.AutoSubmitLeadSec, c.turn.submitted) {
		return true
	}

	log.Info().
		Int("turn", c.turn.number()).
		Int("raw_seconds", e.Seconds).
		Msg("timer forcing submission")
	if err := c.submit(true); err != nil {
		// Not latched: the next tick below the lead retries.
		log.Error().Err(err).Int("turn", c.turn.number()).Msg("auto-submit failed")
		return true
	}
	c.timer.fired = true
	return true
}
