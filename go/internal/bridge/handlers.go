package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/clients"
	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/game/session"
	"github.com/mcdev12/csschain/go/internal/transport"
)

type actionRequest struct {
	RoomCode    string `json:"roomCode"`
	Name        string `json:"name"`
	CSS         string `json:"css"`
	DurationSec int    `json:"durationSeconds"`
	On          bool   `json:"on"`
}

type actionResponse struct {
	// Applied is false when the action was a no-op, such as an edit
	// after submitting.
	Applied bool             `json:"applied"`
	View    coordinator.View `json:"view"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleGetState handles GET /api/state
func (s *Server) HandleGetState(w http.ResponseWriter, r *http.Request) {
	v, err := s.session.View(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleGetStatus handles GET /api/status
func (s *Server) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleAction handles POST /api/actions/{action}
func (s *Server) HandleAction(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ctx := r.Context()
	applied := true
	var err error
	switch action {
	case "join":
		err = s.session.JoinRoom(ctx, strings.TrimSpace(req.RoomCode), strings.TrimSpace(req.Name))
	case "start":
		err = s.session.StartGame(ctx)
	case "edit":
		applied, err = s.session.Edit(ctx, req.CSS)
	case "seed":
		applied, err = s.session.UseSeedCSS(ctx)
	case "submit":
		err = s.session.Submit(ctx)
	case "cancel":
		err = s.session.Cancel(ctx)
	case "advance":
		err = s.session.AdvanceReveal(ctx)
	case "lobby":
		err = s.session.ReturnToLobby(ctx)
	case "timer":
		err = s.session.UpdateTimerSettings(ctx, req.DurationSec)
	case "reveal-all":
		err = s.session.SetRevealAll(ctx, req.On)
	case "clear-error":
		err = s.session.ClearError(ctx)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Debug().Err(err).Str("action", action).Msg("bridge action refused")
		writeError(w, err)
		return
	}

	v, err := s.session.View(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Applied: applied, View: v})
}

// HandlePreview handles GET /preview. The css query parameter previews
// text that is not in the edit buffer yet.
func (s *Server) HandlePreview(w http.ResponseWriter, r *http.Request) {
	v, err := s.session.View(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if v.Prompt == nil {
		http.Error(w, "no active prompt", http.StatusNotFound)
		return
	}

	css := v.Submission.Buffer
	if q := r.URL.Query(); q.Has("css") {
		css = q.Get("css")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", previewPolicy)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(PreviewDocument(v.Prompt.HTML, css))); err != nil {
		log.Error().Err(err).Msg("failed to write preview")
	}
}

// HandleAsset handles GET /assets/{path...} by proxying the backend image.
func (s *Server) HandleAsset(w http.ResponseWriter, r *http.Request) {
	ref := "/" + r.PathValue("path")
	asset, err := s.assets.Fetch(r.Context(), ref)
	if err != nil {
		var status *clients.StatusError
		switch {
		case errors.As(err, &status) && status.StatusCode == http.StatusNotFound:
			http.NotFound(w, r)
		case errors.Is(err, clients.ErrNotImage):
			http.Error(w, "not an image", http.StatusBadGateway)
		default:
			log.Error().Err(err).Str("ref", ref).Msg("failed to fetch asset")
			http.Error(w, "failed to fetch asset", http.StatusBadGateway)
		}
		return
	}
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(asset.Data); err != nil {
		log.Error().Err(err).Msg("failed to write asset")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, coordinator.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, coordinator.ErrTimerOutOfRange),
		errors.Is(err, coordinator.ErrMissingJoinFields):
		return http.StatusBadRequest
	case errors.Is(err, coordinator.ErrNotJoined),
		errors.Is(err, coordinator.ErrWrongPhase),
		errors.Is(err, coordinator.ErrNoActiveTurn),
		errors.Is(err, coordinator.ErrNotEnoughPlayers),
		errors.Is(err, coordinator.ErrNoResults):
		return http.StatusConflict
	case errors.Is(err, transport.ErrNotConnected),
		errors.Is(err, transport.ErrClosed),
		errors.Is(err, session.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
