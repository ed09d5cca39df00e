package coordinator

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
)

func (c *Coordinator) applyTimerSettings(e events.TimerSettingsUpdate) bool {
	s := e.Settings
	c.settings = &s
	log.Debug().Int("duration_sec", s.DurationSec).Msg("timer settings confirmed")
	return true
}

// UpdateTimerSettings asks the server to use durationSec for future turns.
// Out-of-range values are refused locally with the same last-error message
// the server would give, and the confirmed settings stay as they were.
func (c *Coordinator) UpdateTimerSettings(durationSec int) error {
	// Host and phase failures are returned only; the last error slot holds
	// refusals the server would report.
	if err := c.requireHost(); err != nil {
		return err
	}
	if c.phase.phase() != models.PhaseLobby {
		return ErrWrongPhase
	}
	if !c.cfg.TimerBounds.Contains(durationSec) {
		c.setError(fmt.Sprintf("Timer must be between %s.", c.cfg.TimerBounds))
		return fmt.Errorf("%w: %d", ErrTimerOutOfRange, durationSec)
	}
	return c.emit(events.UpdateTimerSettings{DurationSec: durationSec}, func(ack transport.Ack) {
		if !ack.Success {
			c.setError(ack.Message)
		}
	})
}
