package app

import (
	"context"
	"encoding/json"
	"sync"

	"friends_sync_service/internal/realtime/domain"
	"friends_sync_service/pkg"
	errprocess "friends_sync_service/pkg/err"
	"friends_sync_service/pkg/logger"

	"go.uber.org/zap"
)

// Handler consumes the raw payload of one pushed event
type Handler func(data json.RawMessage)

// Conn minimal duplex connection surface, satisfied by *websocket.Conn
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a duplex connection to the push gateway
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type subscription struct {
	id int
	fn Handler
}

// Connection owns the single duplex connection of the signed-in identity.
// It registers presence on connect, fans incoming events out to subscribers
// per event name in arrival order, and tears down on Close. A dropped
// connection stops delivering until Connect is called again; there is no
// automatic reconnect.
type Connection struct {
	dialer Dialer
	url    string

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     Conn
	identity string
	gen      int
	nextSub  int
	subs     map[string][]subscription
	online   []string
}

// NewConnection create a lifecycle manager for the given gateway URL
func NewConnection(url string, dialer Dialer) *Connection {
	return &Connection{
		dialer: dialer,
		url:    url,
		subs:   make(map[string][]subscription),
	}
}

// Connect dial the gateway for identity and register presence. An existing
// connection is closed first; re-entering the connected state always uses a
// fresh connection.
func (c *Connection) Connect(ctx context.Context, identity string) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.gen++
	}
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return errprocess.Wrap("push gateway dial failed", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.identity = identity
	gen := c.gen
	c.mu.Unlock()

	if err := c.write(conn, domain.EventAddUser, domain.AddUser{UserID: identity}); err != nil {
		conn.Close()
		c.mu.Lock()
		if c.gen == gen {
			c.conn = nil
		}
		c.mu.Unlock()
		return errprocess.Wrap("presence registration failed", err)
	}

	logger.Log.Info("push channel connected", zap.String("userID", identity))
	go c.readLoop(conn, gen)
	return nil
}

// Close tear the connection down; subscribers stay registered
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.gen++
	logger.Log.Info("push channel closed", zap.String("userID", c.identity))
	return err
}

// Connected report whether a live connection exists
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Subscribe register a handler for one event name and return its unsubscribe.
// Delivery per event is FIFO as received from the transport; no dedup happens
// at this layer.
func (c *Connection) Subscribe(event string, fn Handler) (unsubscribe func()) {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs[event] = append(c.subs[event], subscription{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		list := c.subs[event]
		for i, s := range list {
			if s.id == id {
				c.subs[event] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit publish an event to the gateway over the live connection
func (c *Connection) Emit(event string, data interface{}) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errprocess.Set("push channel not connected")
	}
	return c.write(conn, event, data)
}

// Online snapshot of the identities currently connected to the gateway.
// Sourced entirely from getUsers events; empty until the first one arrives.
func (c *Connection) Online() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.online))
	copy(out, c.online)
	return out
}

func (c *Connection) write(conn Conn, event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(domain.Envelope{Event: event, Data: raw})
}

func (c *Connection) readLoop(conn Conn, gen int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := c.gen == gen
			if current {
				c.conn = nil
			}
			c.mu.Unlock()
			if current {
				logger.Log.Warn("push channel dropped, delivery stopped", zap.Error(err))
			}
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Log.Errorf("push frame decode failed", err)
			continue
		}

		if env.Event == domain.EventGetUsers {
			c.updatePresence(env.Data)
		}
		c.dispatch(env.Event, env.Data)
	}
}

// dispatch runs the handlers synchronously on the read goroutine so that
// per-event ordering follows arrival order
func (c *Connection) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	list := make([]subscription, len(c.subs[event]))
	copy(list, c.subs[event])
	c.mu.Unlock()

	for _, s := range list {
		s.fn(data)
	}
}

func (c *Connection) updatePresence(data json.RawMessage) {
	var users []domain.OnlineUser
	if err := json.Unmarshal(data, &users); err != nil {
		logger.Log.Errorf("presence payload decode failed", err)
		return
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	c.mu.Lock()
	c.online = pkg.Unique(ids)
	c.mu.Unlock()
}
