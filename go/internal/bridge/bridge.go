// Package bridge exposes a running game session to a local renderer over
// HTTP.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/csschain/go/clients"
	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/game/session"
)

// Session is the part of session.Session the bridge drives.
type Session interface {
	View(ctx context.Context) (coordinator.View, error)
	Status(ctx context.Context) (session.Status, error)

	JoinRoom(ctx context.Context, code, name string) error
	StartGame(ctx context.Context) error
	Edit(ctx context.Context, text string) (bool, error)
	UseSeedCSS(ctx context.Context) (bool, error)
	Submit(ctx context.Context) error
	Cancel(ctx context.Context) error
	AdvanceReveal(ctx context.Context) error
	ReturnToLobby(ctx context.Context) error
	UpdateTimerSettings(ctx context.Context, durationSec int) error
	SetRevealAll(ctx context.Context, on bool) error
	ClearError(ctx context.Context) error
}

// Assets fetches backend images.
type Assets interface {
	Fetch(ctx context.Context, ref string) (clients.Asset, error)
}

// Metrics exposes a Prometheus scrape handler.
type Metrics interface {
	Handler() http.Handler
}

type Server struct {
	session Session
	assets  Assets
	metrics Metrics
}

// New creates a bridge. assets and metrics may be nil, which disables
// their routes.
func New(s Session, assets Assets, metrics Metrics) *Server {
	return &Server{session: s, assets: assets, metrics: metrics}
}

// Handler returns the routes wrapped with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", s.HandleGetState)
	mux.HandleFunc("GET /api/status", s.HandleGetStatus)
	mux.HandleFunc("POST /api/actions/{action}", s.HandleAction)
	mux.HandleFunc("GET /preview", s.HandlePreview)
	if s.assets != nil {
		mux.HandleFunc("GET /assets/{path...}", s.HandleAsset)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("bridge listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		log.Info().Msg("bridge stopped")
		return nil
	}
}
