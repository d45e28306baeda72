package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"game_theory_arena/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 1024
)

// Client is a websocket Peer. The read pump feeds the hub, the write pump drains send.
type Client struct {
	id     string
	userID game.PlayerID
	name   string

	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	log  *zap.Logger

	mu     sync.Mutex
	closed bool
}

func NewClient(id string, userID game.PlayerID, name string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:     id,
		userID: userID,
		name:   name,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
		log: hub.log.Named("client").With(
			zap.String("conn", id),
			zap.String("user", string(userID)),
		),
	}
}

func (c *Client) ConnID() string        { return c.id }
func (c *Client) UserID() game.PlayerID { return c.userID }
func (c *Client) Name() string          { return c.name }

func (c *Client) Deliver(msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal outbound", zap.String("type", msg.Type), zap.Error(err))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		// a peer this far behind is as good as gone
		c.log.Warn("send buffer full, dropping message", zap.String("type", msg.Type))
		return false
	}
}

// Run blocks until the connection closes, then reports the disconnect to the hub.
func (c *Client) Run() {
	c.hub.metrics.Connections.Inc()
	defer c.hub.metrics.Connections.Dec()

	go c.writePump()
	c.readPump()

	c.close()
	c.hub.Disconnected(c)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("read failed", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			c.Deliver(errorMessage("malformed message"))
			continue
		}
		c.hub.Inbound(c, env)
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
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write failed", zap.Error(err))
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
