package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/csschain/go/internal/transport"
)

const within = 2 * time.Second

type peer struct {
	conn     *websocket.Conn
	clientID string
	pings    chan struct{}
}

type server struct {
	*httptest.Server
	peers chan *peer
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{peers: make(chan *peer, 4)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		p := &peer{conn: conn, clientID: r.URL.Query().Get("client_id"), pings: make(chan struct{}, 4)}
		conn.SetPingHandler(func(string) error {
			p.pings <- struct{}{}
			return conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(time.Second))
		})
		s.peers <- p
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *server) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func (s *server) accept(t *testing.T) *peer {
	t.Helper()
	select {
	case p := <-s.peers:
		t.Cleanup(func() { p.conn.Close() })
		return p
	case <-time.After(within):
		t.Fatal("client never connected")
		return nil
	}
}

func (p *peer) read(t *testing.T) Envelope {
	t.Helper()
	require.NoError(t, p.conn.SetReadDeadline(time.Now().Add(within)))
	var env Envelope
	require.NoError(t, p.conn.ReadJSON(&env))
	return env
}

func (p *peer) write(t *testing.T, env Envelope) {
	t.Helper()
	require.NoError(t, p.conn.WriteJSON(env))
}

func connect(t *testing.T, clock clockwork.Clock) (*Client, *peer) {
	t.Helper()
	srv := newServer(t)
	cfg := DefaultConfig(srv.wsURL())
	if clock != nil {
		cfg.Clock = clock
	}
	c := New(cfg)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Connect(context.Background()))
	return c, srv.accept(t)
}

func TestClient_ConnectAnnouncesID(t *testing.T) {
	c, p := connect(t, nil)

	assert.True(t, c.Connected())
	assert.Equal(t, c.ID(), p.clientID)
	require.NoError(t, c.Connect(context.Background()), "second connect is a no-op")
}

func TestClient_NotConnected(t *testing.T) {
	c := New(DefaultConfig("ws://127.0.0.1:1/ws"))
	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.Emit("startGame", nil, nil), transport.ErrNotConnected)
}

func TestClient_DispatchesEvents(t *testing.T) {
	c, p := connect(t, nil)
	got := make(chan json.RawMessage, 1)
	c.On("timerUpdate", func(data json.RawMessage) { got <- data })

	p.write(t, Envelope{Type: TypeEvent, Name: "unknown", Data: json.RawMessage(`1`)})
	p.write(t, Envelope{Type: TypeEvent, Name: "timerUpdate", Data: json.RawMessage(`42`)})

	select {
	case data := <-got:
		assert.JSONEq(t, `42`, string(data))
	case <-time.After(within):
		t.Fatal("event not delivered")
	}
}

func TestClient_EmitWithAck(t *testing.T) {
	c, p := connect(t, nil)
	acks := make(chan transport.Ack, 1)

	require.NoError(t, c.Emit("submitCss", map[string]string{"css": "a{}"}, func(a transport.Ack) { acks <- a }))

	env := p.read(t)
	assert.Equal(t, TypeAction, env.Type)
	assert.Equal(t, "submitCss", env.Name)
	assert.JSONEq(t, `{"css":"a{}"}`, string(env.Data))
	require.NotEmpty(t, env.ID)

	p.write(t, Envelope{Type: TypeAck, ID: env.ID, Data: json.RawMessage(`{"success":false,"message":"Too late"}`)})

	select {
	case a := <-acks:
		assert.False(t, a.Success)
		assert.Equal(t, "Too late", a.Message)
	case <-time.After(within):
		t.Fatal("ack not delivered")
	}
}

func TestClient_FireAndForgetHasNoID(t *testing.T) {
	c, p := connect(t, nil)
	require.NoError(t, c.Emit("cancelSubmit", nil, nil))

	env := p.read(t)
	assert.Equal(t, "cancelSubmit", env.Name)
	assert.Empty(t, env.ID)
	assert.Empty(t, env.Data)
}

func TestClient_DisconnectFailsPendingAcks(t *testing.T) {
	c, p := connect(t, nil)
	acks := make(chan transport.Ack, 1)
	require.NoError(t, c.Emit("startGame", nil, func(a transport.Ack) { acks <- a }))
	p.read(t)

	p.conn.Close()

	select {
	case a := <-acks:
		assert.False(t, a.Success)
		assert.Equal(t, connectionLostMessage, a.Message)
	case <-time.After(within):
		t.Fatal("pending ack never failed")
	}
	assert.Eventually(t, func() bool { return !c.Connected() }, within, 10*time.Millisecond)
	assert.ErrorIs(t, c.Emit("startGame", nil, nil), transport.ErrNotConnected)
}

func TestClient_CloseIsFinal(t *testing.T) {
	c, _ := connect(t, nil)
	require.NoError(t, c.Close())

	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.Emit("startGame", nil, nil), transport.ErrClosed)
	assert.ErrorIs(t, c.Connect(context.Background()), transport.ErrClosed)
}

func TestClient_PingsOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c, p := connect(t, clock)

	// The server only handles control frames while reading.
	go func() {
		for {
			if _, _, err := p.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), within)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(c.cfg.PingInterval)

	select {
	case <-p.pings:
	case <-time.After(within):
		t.Fatal("no ping sent")
	}
}
