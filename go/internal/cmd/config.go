package main

import (
	"github.com/mcdev12/csschain/go/internal/config"
	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport"
	"github.com/mcdev12/csschain/go/internal/transport/natsbus"
	"github.com/mcdev12/csschain/go/internal/transport/ws"
)

func coordinatorConfig(cfg config.Config) coordinator.Config {
	c := coordinator.DefaultConfig()
	c.DisplayOffsetSec = cfg.Timer.DisplayOffsetSec
	if c.DisplayOffsetSec == 0 {
		// Zero in the file means no offset; the coordinator reads zero as
		// "use the default".
		c.DisplayOffsetSec = -1
	}
	c.AutoSubmitLeadSec = cfg.Timer.AutoSubmitLeadSec
	c.TimerBounds = models.TimerBounds{MinSec: cfg.Timer.MinSec, MaxSec: cfg.Timer.MaxSec}
	c.MinPlayers = cfg.MinPlayers
	return c
}

func newTransport(cfg config.Config) transport.Transport {
	switch cfg.Transport {
	case config.TransportNATS:
		nc := natsbus.DefaultConfig()
		nc.URL = cfg.NATSURL
		return natsbus.New(nc)
	default:
		wc := ws.DefaultConfig(cfg.WebSocketURL())
		wc.PingInterval = cfg.WS.PingInterval
		wc.WriteTimeout = cfg.WS.WriteTimeout
		wc.ReadTimeout = cfg.WS.ReadTimeout
		return ws.New(wc)
	}
}
