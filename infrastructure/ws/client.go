package ws

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"context"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

var _ contract.EventSink = (*Client)(nil)

// Client wraps one WebSocket connection. It is the per-connection
// EventSink handed to the core on OnOpen: Consume pushes broadcast
// events into a buffered channel drained by the write pump, so a slow
// peer never blocks a topic fan-out.
type Client struct {
	connID string
	conn   *websocket.Conn
	events chan domain.ChatEvent
	done   chan struct{}
	closed atomic.Bool
}

func NewClient(connID string, conn *websocket.Conn, bufferSize int) *Client {
	return &Client{
		connID: connID,
		conn:   conn,
		events: make(chan domain.ChatEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

func (c *Client) ConnID() string {
	return c.connID
}

// Consume queues an event for the write pump. A full buffer drops the
// event for this client only (backpressure, best-effort broadcast); a
// client already torn down reports the failure so the delivery report
// can record it.
func (c *Client) Consume(ctx context.Context, e domain.ChatEvent) error {
	if c.closed.Load() {
		return errors.ErrSessionClosed
	}
	select {
	case c.events <- e:
		return nil
	case <-c.done:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Buffer full: drop for this subscriber rather than stalling the topic.
		return nil
	}
}

// Close releases the write pump. Safe to call more than once.
func (c *Client) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
}
