package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// Client represents a single WebSocket connection watching one collection.
type Client struct {
	conn   *ws.Conn
	send   chan []byte
	logger *slog.Logger
}

// NewClient creates a Client for the given connection.
func NewClient(conn *ws.Conn, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// Deliver queues a snapshot for the client. When the buffer is full the
// snapshot is dropped; the next one supersedes it.
func (c *Client) Deliver(s Snapshot) {
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Error("marshal snapshot", "collection", s.Collection, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("client buffer full, snapshot dropped", "collection", s.Collection)
	}
}

// Run starts the write pump and runs the read pump. It blocks until the
// connection is closed or ctx is done.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards incoming messages and returns on close.
func (c *Client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
