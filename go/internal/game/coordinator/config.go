package coordinator

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/csschain/go/internal/game/metrics"
	"github.com/mcdev12/csschain/go/internal/models"
)

const (
	DefaultDisplayOffsetSec  = 3
	DefaultAutoSubmitLeadSec = 2
	DefaultMinPlayers        = 2
)

// Config tunes the coordinator. Zero values fall back to the defaults.
type Config struct {
	// DisplayOffsetSec is subtracted from the server's remaining seconds
	// before display. Zero means the default, negative disables it.
	DisplayOffsetSec int
	// AutoSubmitLeadSec forces a submission once the raw remaining seconds
	// drop below it.
	AutoSubmitLeadSec int
	TimerBounds       models.TimerBounds
	MinPlayers        int

	Clock   clockwork.Clock
	Metrics metrics.Collector
}

// DefaultConfig returns the observed production values.
func DefaultConfig() Config {
	return Config{
		DisplayOffsetSec:  DefaultDisplayOffsetSec,
		AutoSubmitLeadSec: DefaultAutoSubmitLeadSec,
		TimerBounds:       models.DefaultTimerBounds(),
		MinPlayers:        DefaultMinPlayers,
		Clock:             clockwork.NewRealClock(),
		Metrics:           metrics.NoOpCollector{},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DisplayOffsetSec < 0 {
		c.DisplayOffsetSec = 0
	} else if c.DisplayOffsetSec == 0 {
		c.DisplayOffsetSec = d.DisplayOffsetSec
	}
	if c.AutoSubmitLeadSec <= 0 {
		c.AutoSubmitLeadSec = d.AutoSubmitLeadSec
	}
	if c.TimerBounds == (models.TimerBounds{}) {
		c.TimerBounds = d.TimerBounds
	}
	if c.MinPlayers <= 0 {
		c.MinPlayers = d.MinPlayers
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Metrics == nil {
		c.Metrics = d.Metrics
	}
	return c
}
