// Package natsbus implements transport.Transport over NATS.
//
// Actions are requests on <prefix>.actions.<name> carrying the client id in
// a header; the reply is the ack. The server addresses pushed events to
// <prefix>.clients.<id>.events.<name>.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/csschain/go/internal/transport"
)

// ClientHeader names the header that identifies the sender of an action.
const ClientHeader = "Csschain-Client"

const (
	timeoutMessage     = "Request timed out."
	unavailableMessage = "Server unavailable."
)

// Config holds configuration for the NATS transport
type Config struct {
	URL            string
	SubjectPrefix  string
	RequestTimeout time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

// DefaultConfig returns default NATS transport configuration
func DefaultConfig() Config {
	return Config{
		URL:            nats.DefaultURL,
		SubjectPrefix:  "csschain",
		RequestTimeout: 10 * time.Second,
		MaxReconnects:  -1, // Infinite
		ReconnectWait:  2 * time.Second,
	}
}

type Client struct {
	cfg Config
	id  string

	mu       sync.Mutex
	nc       *nats.Conn
	sub      *nats.Subscription
	closed   bool
	handlers map[string]transport.Handler
	inflight sync.WaitGroup
}

var _ transport.Transport = (*Client)(nil)

func New(cfg Config) *Client {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultConfig().SubjectPrefix
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Client{
		cfg:      cfg,
		id:       uuid.New().String(),
		handlers: make(map[string]transport.Handler),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nc != nil && c.nc.IsConnected()
}

// Connect dials NATS and subscribes to this client's event subject.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	if c.nc != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := []nats.Option{
		nats.Name("csschain-" + c.id),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.ReconnectWait(c.cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Str("connection_id", c.id).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}
	nc, err := nats.Connect(c.cfg.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := nc.Subscribe(eventSubject(c.cfg.SubjectPrefix, c.id, "*"), c.onMessage)
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe to events: %w", err)
	}

	c.nc = nc
	c.sub = sub
	log.Info().
		Str("connection_id", c.id).
		Str("subject", sub.Subject).
		Msg("NATS transport connected")
	return nil
}

func (c *Client) onMessage(msg *nats.Msg) {
	name := eventName(msg.Subject)
	c.mu.Lock()
	h := c.handlers[name]
	c.mu.Unlock()
	if h == nil {
		log.Debug().Str("event", name).Msg("no handler for event")
		return
	}
	h(json.RawMessage(msg.Data))
}

// Emit publishes an action. When ack is set the action is sent as a
// request and ack runs on a separate goroutine with the reply.
func (c *Client) Emit(name string, payload any, ack transport.AckFunc) error {
	var data []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", name, err)
		}
		data = b
	}

	c.mu.Lock()
	nc := c.nc
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return transport.ErrClosed
	}
	if nc == nil || !nc.IsConnected() {
		return transport.ErrNotConnected
	}

	msg := nats.NewMsg(actionSubject(c.cfg.SubjectPrefix, name))
	msg.Header.Set(ClientHeader, c.id)
	msg.Data = data

	if ack == nil {
		if err := nc.PublishMsg(msg); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
		return nil
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		reply, err := nc.RequestMsg(msg, c.cfg.RequestTimeout)
		var replyData []byte
		if reply != nil {
			replyData = reply.Data
		}
		a := replyAck(replyData, err)
		if !a.Success {
			log.Debug().Str("action", name).Str("reason", a.Message).Msg("request failed")
		}
		ack(a)
	}()
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

// Close unsubscribes and closes the connection. It waits for outstanding
// requests to complete or time out.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	nc, sub := c.nc, c.sub
	c.nc, c.sub = nil, nil
	c.mu.Unlock()

	if nc == nil {
		return nil
	}
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			log.Warn().Err(err).Msg("failed to unsubscribe from events")
		}
	}
	c.inflight.Wait()
	nc.Close()
	return nil
}

func actionSubject(prefix, name string) string {
	return prefix + ".actions." + name
}

func eventSubject(prefix, clientID, name string) string {
	return prefix + ".clients." + clientID + ".events." + name
}

func eventName(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

// replyAck turns a request outcome into an ack.
func replyAck(data []byte, err error) transport.Ack {
	switch {
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return transport.Fail(timeoutMessage)
	case errors.Is(err, nats.ErrNoResponders):
		return transport.Fail(unavailableMessage)
	case err != nil:
		return transport.Fail(err.Error())
	}
	ack, derr := transport.DecodeAck(data)
	if derr != nil {
		return transport.Fail("")
	}
	return ack
}
