package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/config"
	"github.com/mcdev12/csschain/go/internal/game/metrics"
	"github.com/mcdev12/csschain/go/internal/game/session"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	noConsole := flag.Bool("no-console", false, "do not read commands from stdin")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := newTransport(cfg)
	defer t.Close()

	counters := metrics.NewCounters(nil)
	s := session.New(t,
		session.WithConfig(coordinatorConfig(cfg)),
		session.WithMetrics(counters),
	)

	log.Info().
		Str("backend_url", cfg.BackendURL).
		Str("transport", cfg.Transport).
		Str("connection_id", t.ID()).
		Str("bridge_addr", cfg.BridgeAddr).
		Msg("starting csschain client")

	if err := t.Connect(ctx); err != nil {
		// Joining a room retries the connection.
		log.Warn().Err(err).Msg("initial connect failed")
	}

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("session stopped")
		}
	}()
	go watchUpdates(s.Updates())

	bridgeDone := make(chan struct{})
	go func() {
		defer close(bridgeDone)
		if err := runBridge(ctx, cfg, s, counters); err != nil {
			log.Error().Err(err).Msg("bridge failed")
			stop()
		}
	}()

	if !*noConsole {
		go func() {
			c := newConsole(s, os.Stdout)
			quit, err := c.run(ctx, os.Stdin)
			if err != nil {
				log.Error().Err(err).Msg("console failed")
			}
			if quit {
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	<-sessionDone
	<-bridgeDone
}
