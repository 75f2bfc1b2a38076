package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redderi/avatar-colour/domain"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

// Resolver turns a username into an avatar.
type Resolver func(ctx context.Context, username string) (domain.Avatar, error)

type Client struct {
	username string
	conn     *websocket.Conn
	send     chan []byte
	resolve  Resolver
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex
	closed   bool
}

// Message is the envelope for every frame the server writes.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorFrame `json:"error,omitempty"`
}

type ErrorFrame struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	TypeAvatar   = "avatar"
	TypeAssigned = "avatar.assigned"
	TypeError    = "error"

	CodeInvalidInput = "invalid_input"
	CodeInternal     = "internal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 256
)

// NewClient creates a new WebSocket client for an authenticated user
func NewClient(conn *websocket.Conn, username string, resolve Resolver) *Client {
	ctx := context.WithValue(context.Background(), log.ClientIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, log.UsernameKey, username)
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		resolve:  resolve,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (c *Client) Run() {
	c.setupHandlers()

	go c.readPump()
	go c.writePump()
}

func (c *Client) setupHandlers() {
	c.conn.SetCloseHandler(func(code int, text string) error {
		log.WithCtx(c.ctx).Debug("WebSocket connection closed", zap.Int("code", code), zap.String("text", text))
		c.Close()
		return nil
	})

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Close stops the client. writePump then sends the close frame and
// closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	c.cancel()
}

// IsClosed returns true if the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// readPump treats every text frame as a username to resolve
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithCtx(c.ctx).Error("WebSocket error", zap.Error(err))
			}
			return
		}

		c.handle(string(message))
	}
}

func (c *Client) handle(username string) {
	reply := Message{Type: TypeAvatar, Timestamp: time.Now().UTC()}

	avatar, err := c.resolve(c.ctx, username)
	switch {
	case err == nil:
		reply.Data = avatar
	case isInvalidInput(err):
		reply.Type = TypeError
		reply.Error = &ErrorFrame{Code: CodeInvalidInput, Message: "username must not be empty"}
	default:
		log.WithCtx(c.ctx).Error("Failed to resolve avatar", zap.Error(err))
		reply.Type = TypeError
		reply.Error = &ErrorFrame{Code: CodeInternal, Message: "failed to resolve colour"}
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		log.WithCtx(c.ctx).Error("Failed to marshal reply", zap.Error(err))
		return
	}
	if err := c.SendMessage(payload); err != nil {
		log.WithCtx(c.ctx).Debug("Dropped reply", zap.Error(err))
	}
}

// writePump owns all writes to the connection, including pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithCtx(c.ctx).Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithCtx(c.ctx).Debug("Failed to send ping", zap.Error(err))
				return
			}

		case <-c.ctx.Done():
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// SendMessage queues a frame; a client that cannot keep up is disconnected
func (c *Client) SendMessage(message []byte) error {
	if c.IsClosed() {
		return websocket.ErrCloseSent
	}

	select {
	case c.send <- message:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.Close()
		return websocket.ErrCloseSent
	}
}
