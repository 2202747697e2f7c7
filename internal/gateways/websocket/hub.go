package websocket

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"sync/atomic"
	"time"

	"groupchat/internal/metrics"
	"groupchat/internal/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Client is one connected browser or CLI. The hub only ever writes to send;
// writePump owns the connection's write side.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	ID     string
	UserID uint64
}

func generateClientID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "xxxxx"
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// Hub relays message change events to every connected client. Clients treat
// a frame as a hint to poll; the frame itself carries no message content.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	events     <-chan utils.Event
	done       chan struct{}
	count      atomic.Int64
	upgrader   websocket.Upgrader
	logger     *zap.SugaredLogger
}

// NewHub builds a hub accepting upgrades from allowedOrigins, from the
// server's own host and from clients that send no Origin header.
func NewHub(logger *zap.Logger, eventBus *utils.EventBus, allowedOrigins []string) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		events:     eventBus.SubscribeCh(),
		done:       make(chan struct{}),
		logger:     logger.Sugar(),
	}
}

// ClientCount is safe to call from any goroutine.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Stop ends Run and disconnects every client.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

func (h *Hub) Run() {
	h.logger.Info("WebSocket Hub started")

	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.remove(client)
			}
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			metrics.WebsocketClients.Inc()
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"user_id", client.UserID,
				"clients_count", len(h.clients),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"clients_count", len(h.clients),
				)
			}

		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event utils.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("Failed to encode event", "event", event.Event, "error", err)
		return
	}
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Warnw("Dropping slow client", "client_id", client.ID)
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Store(int64(len(h.clients)))
	metrics.WebsocketClients.Dec()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
