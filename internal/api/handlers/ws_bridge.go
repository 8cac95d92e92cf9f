package handlers

import (
	"encoding/json"
	"sync"

	realtimedomain "friends_sync_service/internal/realtime/domain"
	"friends_sync_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Bridge fans push events out to the UI websocket clients. It must be
// subscribed after the stores so clients only see an event once the local
// state already reflects it.
type Bridge struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewBridge create Bridge
func NewBridge() *Bridge {
	return &Bridge{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// Forward build the handler that relays one event type to every client
func (b *Bridge) Forward(event string) func(json.RawMessage) {
	return func(data json.RawMessage) {
		envelope := realtimedomain.Envelope{Event: event, Data: data}
		payload, err := json.Marshal(envelope)
		if err != nil {
			logger.Log.Errorf("bridge envelope marshal failed", err)
			return
		}

		b.mu.Lock()
		conns := make(map[*websocket.Conn]*sync.Mutex, len(b.clients))
		for conn, writeMu := range b.clients {
			conns[conn] = writeMu
		}
		b.mu.Unlock()

		for conn, writeMu := range conns {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, payload)
			writeMu.Unlock()
			if err != nil {
				logger.Log.Warn("bridge client write failed, dropping client", zap.Error(err))
				b.drop(conn)
			}
		}
	}
}

// HandleConnection register the UI client and block until it disconnects
func (b *Bridge) HandleConnection(conn *websocket.Conn) {
	b.mu.Lock()
	b.clients[conn] = new(sync.Mutex)
	b.mu.Unlock()
	logger.Log.Info("ui client attached", zap.String("remote", conn.RemoteAddr().String()))

	defer func() {
		b.drop(conn)
		logger.Log.Info("ui client detached", zap.String("remote", conn.RemoteAddr().String()))
	}()

	// inbound traffic is ignored, mutations go through the REST intents
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Warn("ui client read error", zap.Error(err))
			}
			return
		}
	}
}

func (b *Bridge) drop(conn *websocket.Conn) {
	b.mu.Lock()
	_, ok := b.clients[conn]
	delete(b.clients, conn)
	b.mu.Unlock()
	if ok {
		conn.Close()
	}
}
