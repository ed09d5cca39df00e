package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/csschain/go/clients"
	"github.com/mcdev12/csschain/go/internal/game/coordinator"
	"github.com/mcdev12/csschain/go/internal/game/events"
	"github.com/mcdev12/csschain/go/internal/game/metrics"
	"github.com/mcdev12/csschain/go/internal/game/session"
	"github.com/mcdev12/csschain/go/internal/models"
	"github.com/mcdev12/csschain/go/internal/transport/transporttest"
)

type fakeAssets map[string]clients.Asset

func (f fakeAssets) Fetch(ctx context.Context, ref string) (clients.Asset, error) {
	if a, ok := f[ref]; ok {
		return a, nil
	}
	if ref == "/page.html" {
		return clients.Asset{}, fmt.Errorf("fetch: %w", clients.ErrNotImage)
	}
	return clients.Asset{}, &clients.StatusError{StatusCode: http.StatusNotFound}
}

type env struct {
	fake     *transporttest.Fake
	counters *metrics.Counters
	srv      *httptest.Server
}

func setup(t *testing.T, selfID string) *env {
	t.Helper()
	fake := transporttest.NewFake(selfID)
	counters := metrics.NewCounters(nil)
	s := session.New(fake, session.WithMetrics(counters))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assets := fakeAssets{"/targets/1.png": {ContentType: "image/png", Data: []byte("png-bytes")}}
	srv := httptest.NewServer(New(s, assets, counters).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &env{fake: fake, counters: counters, srv: srv}
}

func (e *env) push(t *testing.T, name events.EventName, payload any) {
	t.Helper()
	require.True(t, e.fake.Push(string(name), payload))
}

func (e *env) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *env) post(t *testing.T, action string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = strings.NewReader(string(b))
	}
	resp, err := http.Post(e.srv.URL+"/api/actions/"+action, "application/json", r)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

var prompt = models.Prompt{TargetImageURL: "/targets/1.png", HTML: `<div class="box"></div>`, SeedCSS: ".box{}"}

func inGame(t *testing.T, e *env) {
	t.Helper()
	e.push(t, events.EventRoomSnapshot, models.RoomState{
		RoomCode: "ROOM1", HostID: "host", Phase: models.PhaseInGame,
		Users: []models.User{{ID: "host", Name: "Hana"}, {ID: "guest", Name: "Gil"}},
	})
	e.push(t, events.EventGameStart, prompt)
}

func TestGetState(t *testing.T) {
	e := setup(t, "guest")
	inGame(t, e)

	resp := e.get(t, "/api/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v coordinator.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "guest", v.SelfID)
	require.NotNil(t, v.Turn)
	assert.Equal(t, models.TurnCounter{Number: 1, Total: 2}, *v.Turn)
}

func TestActions_EditSubmitFlow(t *testing.T) {
	e := setup(t, "guest")
	inGame(t, e)

	resp, out := e.post(t, "edit", map[string]string{"css": ".box{color:red}"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["applied"])

	resp, _ = e.post(t, "submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, e.fake.Count(string(events.ActionSubmitCSS)))

	resp, out = e.post(t, "edit", map[string]string{"css": "late"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["applied"])
}

func TestActions_Errors(t *testing.T) {
	e := setup(t, "guest")
	e.push(t, events.EventRoomSnapshot, models.RoomState{
		RoomCode: "ROOM1", HostID: "host", Phase: models.PhaseLobby,
		Users: []models.User{{ID: "host"}, {ID: "guest"}},
	})

	resp, out := e.post(t, "start", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, coordinator.ErrNotHost.Error(), out["error"])

	resp, _ = e.post(t, "submit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = e.post(t, "join", map[string]string{"roomCode": " ", "name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r, err := http.Post(e.srv.URL+"/api/actions/teleport", "application/json", nil)
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)

	r, err = http.Post(e.srv.URL+"/api/actions/edit", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestActions_HostTimerOutOfRange(t *testing.T) {
	e := setup(t, "host")
	e.push(t, events.EventRoomSnapshot, models.RoomState{
		RoomCode: "ROOM1", HostID: "host", Phase: models.PhaseLobby,
		Users: []models.User{{ID: "host"}, {ID: "guest"}},
	})

	resp, _ := e.post(t, "timer", map[string]int{"durationSeconds": 1500})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out := e.post(t, "timer", map[string]int{"durationSeconds": 300})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := out["view"].(map[string]any)
	assert.Equal(t, "Timer must be between 20-1200 seconds.", view["lastError"])
	assert.Equal(t, 1, e.fake.Count(string(events.ActionUpdateTimerSettings)))
}

func TestPreview(t *testing.T) {
	e := setup(t, "guest")

	resp := e.get(t, "/preview")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	inGame(t, e)
	e.post(t, "seed", nil)

	resp = e.get(t, "/preview")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, previewPolicy, resp.Header.Get("Content-Security-Policy"))
	assert.Equal(t, `<html><body><div class="box"></div></body><style>.box{}</style></html>`, readBody(t, resp))

	resp = e.get(t, "/preview?css=.box%7Bcolor:blue%7D")
	assert.Contains(t, readBody(t, resp), "<style>.box{color:blue}</style>")
}

func TestAssets(t *testing.T) {
	e := setup(t, "guest")

	resp := e.get(t, "/assets/targets/1.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "png-bytes", readBody(t, resp))

	assert.Equal(t, http.StatusNotFound, e.get(t, "/assets/missing.png").StatusCode)
	assert.Equal(t, http.StatusBadGateway, e.get(t, "/assets/page.html").StatusCode)
}

func TestMetricsAndHealth(t *testing.T) {
	e := setup(t, "guest")
	inGame(t, e)

	resp := e.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `csschain_events_applied_total{event="gameStart"} 1`)

	resp = e.get(t, "/health")
	assert.Equal(t, "OK", readBody(t, resp))
}

func TestStatus(t *testing.T) {
	e := setup(t, "guest")
	inGame(t, e)

	resp := e.get(t, "/api/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st session.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.True(t, st.Connected)
	assert.WithinDuration(t, time.Now(), st.LastEventAt, time.Minute)
}

func TestCORS(t *testing.T) {
	e := setup(t, "guest")
	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/actions/submit", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestPreviewDocument(t *testing.T) {
	assert.Equal(t, "<html><body><p>x</p></body><style></style></html>", PreviewDocument("<p>x</p>", ""))
}
