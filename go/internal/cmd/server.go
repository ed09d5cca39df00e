package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/clients"
	"github.com/mcdev12/csschain/go/internal/bridge"
	"github.com/mcdev12/csschain/go/internal/config"
	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/game/metrics"
)

func runBridge(ctx context.Context, cfg config.Config, s bridge.Session, counters *metrics.Counters) error {
	assets, err := clients.NewAssetClient(cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("asset client: %w", err)
	}
	return bridge.New(s, assets, counters).ListenAndServe(ctx, cfg.BridgeAddr)
}

// watchUpdates logs the moments a player cares about until ch closes.
func watchUpdates(ch <-chan coordinator.View) {
	var last coordinator.View
	for v := range ch {
		if v.Room != nil && (last.Room == nil || last.Room.Phase != v.Room.Phase) {
			log.Info().Str("room_code", v.Room.RoomCode).Str("phase", string(v.Room.Phase)).Msg("phase changed")
		}
		if v.Turn != nil && (last.Turn == nil || *last.Turn != *v.Turn) {
			log.Info().Int("turn", v.Turn.Number).Int("total_turns", v.Turn.Total).Msg("new turn")
		}
		if v.LastError != "" && v.LastError != last.LastError {
			log.Warn().Str("reason", v.LastError).Msg("server refused a request")
		}
		last = v
	}
}
