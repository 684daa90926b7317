package realtime

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	outBufferSize = 32
	pingEvery     = 30 * time.Second
)

// Client is one WebSocket connection attached to the hub.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	out  chan []byte
}

func newClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		out:  make(chan []byte, outBufferSize),
	}
}

// run attaches the client to the hub and pumps events until the connection
// drops, then detaches.
func (c *Client) run(ctx context.Context) {
	c.hub.register(c)
	defer c.hub.unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

// readLoop discards inbound frames; clients only listen. A read error means
// the connection is gone.
func (c *Client) readLoop(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.out:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, data); err != nil {
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
