package models

import "fmt"

const (
	DefaultTimerMinSec = 20
	DefaultTimerMaxSec = 1200
)

// TimerSettings holds the host-configured turn duration for future games.
type TimerSettings struct {
	DurationSec int `json:"durationSeconds"`
}

// TimerBounds is the accepted [Min, Max] range for a turn duration.
type TimerBounds struct {
	MinSec int `yaml:"min_sec" json:"minSec"`
	MaxSec int `yaml:"max_sec" json:"maxSec"`
}

// DefaultTimerBounds returns the range observed on the game server.
func DefaultTimerBounds() TimerBounds {
	return TimerBounds{MinSec: DefaultTimerMinSec, MaxSec: DefaultTimerMaxSec}
}

// Contains reports whether sec is inside the bounds, inclusive.
func (b TimerBounds) Contains(sec int) bool {
	return sec >= b.MinSec && sec <= b.MaxSec
}

func (b TimerBounds) String() string {
	return fmt.Sprintf("%d-%d seconds", b.MinSec, b.MaxSec)
}
