// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/danielhkuo/pollcast/logger"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send pings, so reads stay small
	maxMessageSize = 512

	sendBufferSize = 64
)

// Client is one websocket connection watching a poll.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	pollID string
	send   chan []byte
	done   chan struct{}
	log    *logger.Logger

	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn, hub *Hub, pollID string, log *logger.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		pollID: pollID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		log:    log.With("poll_id", pollID),
	}
}

// Deliver queues data for the write pump, dropping it when the buffer is full.
func (c *Client) Deliver(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.log.Warn("send buffer full, message dropped")
		return false
	}
}

// Send encodes msg and queues it.
func (c *Client) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.Deliver(data)
	return nil
}

// Close shuts the connection down. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run subscribes the client, if it is not already, and blocks until the
// connection ends.
func (c *Client) Run() {
	c.hub.Subscribe(c.pollID, c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.pollID, c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Debug("websocket read error")
			}
			return
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type clientMessage struct {
	Type string `json:"type"`
}

func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Send(NewMessage(MsgError, c.pollID, "invalid message format"))
		return
	}

	switch msg.Type {
	case "ping":
		c.Send(NewMessage(MsgPong, c.pollID, nil))
	default:
		c.Send(NewMessage(MsgError, c.pollID, "unknown message type"))
	}
}
