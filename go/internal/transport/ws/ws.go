// Package ws implements transport.Transport over a gorilla/websocket
// connection carrying JSON envelopes.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/transport"
)

// Envelope types on the wire.
const (
	TypeEvent  = "event"
	TypeAction = "action"
	TypeAck    = "ack"
)

const connectionLostMessage = "Connection lost."

var ErrSendBufferFull = errors.New("send buffer full")

// Envelope is one websocket text frame. Actions that want an answer carry
// an ID which the server echoes back on the ack.
type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Config holds configuration for the websocket client
type Config struct {
	URL              string
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
	SendBufferSize   int
	HandshakeTimeout time.Duration
	Clock            clockwork.Clock
}

// DefaultConfig returns default websocket configuration for url
func DefaultConfig(rawURL string) Config {
	return Config{
		URL:              rawURL,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   1 << 20, // results carry every submitted stylesheet
		SendBufferSize:   64,
		HandshakeTimeout: 10 * time.Second,
		Clock:            clockwork.NewRealClock(),
	}
}

type pendingAck struct {
	name string
	fn   transport.AckFunc
}

// link is one live websocket connection and its pumps.
type link struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		l.conn.Close()
	})
}

// Client is a websocket transport. Handlers and ack callbacks run on the
// read goroutine.
type Client struct {
	cfg    Config
	id     string
	dialer *websocket.Dialer

	mu       sync.Mutex
	link     *link
	closed   bool
	handlers map[string]transport.Handler
	pending  map[string]pendingAck
}

var _ transport.Transport = (*Client)(nil)

// New creates a disconnected client with a fresh connection id.
func New(cfg Config) *Client {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 64
	}
	return &Client{
		cfg: cfg,
		id:  uuid.New().String(),
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		handlers: make(map[string]transport.Handler),
		pending:  make(map[string]pendingAck),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link != nil
}

// Connect dials the server. Calling it while connected does nothing.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return transport.ErrClosed
	}
	if c.link != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("parse websocket url: %w", err)
	}
	q := u.Query()
	q.Set("client_id", c.id)
	u.RawQuery = q.Encode()

	conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}

	l := &link{
		conn: conn,
		send: make(chan []byte, c.cfg.SendBufferSize),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed || c.link != nil {
		c.mu.Unlock()
		conn.Close()
		if c.closed {
			return transport.ErrClosed
		}
		return nil
	}
	c.link = l
	c.mu.Unlock()

	go c.writePump(l)
	go c.readPump(l)

	log.Info().
		Str("connection_id", c.id).
		Str("url", c.cfg.URL).
		Msg("websocket connected")
	return nil
}

func (c *Client) Emit(name string, payload any, ack transport.AckFunc) error {
	env := Envelope{Type: TypeAction, Name: name}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", name, err)
		}
		env.Data = data
	}
	if ack != nil {
		env.ID = uuid.New().String()
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	if c.link == nil {
		return transport.ErrNotConnected
	}
	select {
	case c.link.send <- frame:
	default:
		log.Warn().Str("connection_id", c.id).Str("action", name).Msg("send buffer full, dropping action")
		return ErrSendBufferFull
	}
	if ack != nil {
		c.pending[env.ID] = pendingAck{name: name, fn: ack}
	}
	return nil
}

func (c *Client) On(name string, h transport.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[name] = h
}

func (c *Client) Off(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, name)
}

// Close disconnects for good. Outstanding acks complete as failures.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	l := c.link
	c.mu.Unlock()
	if l != nil {
		c.drop(l)
	}
	return nil
}

// drop tears down l and fails every ack still waiting on it.
func (c *Client) drop(l *link) {
	c.mu.Lock()
	if c.link != l {
		c.mu.Unlock()
		l.close()
		return
	}
	c.link = nil
	waiting := c.pending
	c.pending = make(map[string]pendingAck)
	c.mu.Unlock()

	l.close()
	for id, p := range waiting {
		log.Debug().Str("action", p.name).Str("ack_id", id).Msg("failing ack after disconnect")
		p.fn(transport.Fail(connectionLostMessage))
	}
	log.Info().Str("connection_id", c.id).Int("failed_acks", len(waiting)).Msg("websocket disconnected")
}

// writePump handles sending frames and keepalive pings
func (c *Client) writePump(l *link) {
	ticker := c.cfg.Clock.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.drop(l)
	}()

	for {
		select {
		case <-l.done:
			return

		case frame := <-l.send:
			l.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := l.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			l.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump dispatches server frames until the connection fails
func (c *Client) readPump(l *link) {
	defer c.drop(l)

	if c.cfg.MaxMessageSize > 0 {
		l.conn.SetReadLimit(c.cfg.MaxMessageSize)
	}
	l.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	l.conn.SetPongHandler(func(string) error {
		l.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := l.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		l.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		c.dispatch(message)
	}
}

func (c *Client) dispatch(message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Warn().Err(err).Str("connection_id", c.id).Msg("dropping malformed frame")
		return
	}

	switch env.Type {
	case TypeEvent:
		c.mu.Lock()
		h := c.handlers[env.Name]
		c.mu.Unlock()
		if h == nil {
			log.Debug().Str("event", env.Name).Msg("no handler for event")
			return
		}
		h(env.Data)

	case TypeAck:
		c.mu.Lock()
		p, ok := c.pending[env.ID]
		delete(c.pending, env.ID)
		c.mu.Unlock()
		if !ok {
			log.Debug().Str("ack_id", env.ID).Msg("ack for unknown request")
			return
		}
		ack, err := transport.DecodeAck(env.Data)
		if err != nil {
			log.Warn().Err(err).Str("action", p.name).Msg("malformed ack")
			ack = transport.Fail("")
		}
		p.fn(ack)

	default:
		log.Warn().Str("type", env.Type).Msg("unknown frame type")
	}
}
