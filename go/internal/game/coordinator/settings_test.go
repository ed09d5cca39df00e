package coordinator

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
)

func lobbyHost(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, hostID)
	f.push(events.EventRoomSnapshot, room(models.PhaseLobby, hostID, guestID))
	f.push(events.EventTimerSettings, models.TimerSettings{DurationSec: 90})
	return f
}

func TestScenario_TimerSettingsOutOfRange(t *testing.T) {
	for _, sec := range []int{1500, 19, 0, -5} {
		f := lobbyHost(t)

		err := f.c.UpdateTimerSettings(sec)
		assert.ErrorIs(t, err, ErrTimerOutOfRange)
		assert.Equal(t, "Timer must be between 20-1200 seconds.", f.c.LastError())
		assert.Zero(t, f.fake.Count(string(events.ActionUpdateTimerSettings)))

		s, _ := f.c.TimerSettings()
		assert.Equal(t, 90, s.DurationSec)
	}
}

func TestUpdateTimerSettings_Bounds(t *testing.T) {
	for _, sec := range []int{20, 600, 1200} {
		f := lobbyHost(t)
		require.NoError(t, f.c.UpdateTimerSettings(sec))

		last, ok := f.fake.Last(string(events.ActionUpdateTimerSettings))
		require.True(t, ok)
		assert.JSONEq(t, `{"durationSeconds":`+strconv.Itoa(sec)+`}`, string(last.Payload))

		// Nothing changes until the server confirms.
		s, _ := f.c.TimerSettings()
		assert.Equal(t, 90, s.DurationSec)
	}
}

func TestUpdateTimerSettings_ConfirmedByPush(t *testing.T) {
	f := lobbyHost(t)
	require.NoError(t, f.c.UpdateTimerSettings(300))
	f.fake.Resolve(string(events.ActionUpdateTimerSettings), transport.OK(nil))
	f.push(events.EventTimerSettings, models.TimerSettings{DurationSec: 300})

	s, _ := f.c.TimerSettings()
	assert.Equal(t, 300, s.DurationSec)
	assert.Empty(t, f.c.LastError())
}

func TestUpdateTimerSettings_Rejected(t *testing.T) {
	f := lobbyHost(t)
	require.NoError(t, f.c.UpdateTimerSettings(300))
	f.fake.Resolve(string(events.ActionUpdateTimerSettings), transport.Fail("Only the host can change settings"))

	assert.Equal(t, "Only the host can change settings", f.c.LastError())
	s, _ := f.c.TimerSettings()
	assert.Equal(t, 90, s.DurationSec)
}

func TestUpdateTimerSettings_Guards(t *testing.T) {
	guest := newFixture(t, guestID)
	guest.push(events.EventRoomSnapshot, room(models.PhaseLobby, hostID, guestID))
	assert.ErrorIs(t, guest.c.UpdateTimerSettings(60), ErrNotHost)
	assert.ErrorIs(t, guest.c.UpdateTimerSettings(1500), ErrNotHost)
	assert.Empty(t, guest.c.LastError())

	host := newFixture(t, hostID)
	host.push(events.EventRoomSnapshot, room(models.PhaseInGame, hostID, guestID))
	assert.ErrorIs(t, host.c.UpdateTimerSettings(60), ErrWrongPhase)
}

func TestUpdateTimerSettings_CustomBounds(t *testing.T) {
	fake := newFixture(t, hostID).fake
	cfg := DefaultConfig()
	cfg.TimerBounds = models.TimerBounds{MinSec: 10, MaxSec: 30}
	c := New(fake, cfg)
	c.Attach()
	fake.Push(string(events.EventRoomSnapshot), room(models.PhaseLobby, hostID, guestID))

	assert.ErrorIs(t, c.UpdateTimerSettings(45), ErrTimerOutOfRange)
	assert.Equal(t, "Timer must be between 10-30 seconds.", c.LastError())
	assert.NoError(t, c.UpdateTimerSettings(15))
}
