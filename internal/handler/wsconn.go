/*
Package handler provides the HTTP handlers and the WebSocket transport for the relay.

This file defines wsConn, the transport-side handle for one live client connection.
It implements chat.Conn and owns the socket: the read loop feeds raw frames to the
engine's task queue, and the writer goroutine is the only code that ever writes this
socket, draining the connection's outbound queue whenever a worker wakes it.
*/
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192
)

// wsConn binds one WebSocket to the chat engine and implements chat.Conn.
type wsConn struct {
	// id uniquely identifies this connection for registries and logs.
	id string

	// ip is the peer's address, without port.
	ip string

	// sock is the underlying WebSocket connection object.
	sock *websocket.Conn

	// engine is the relay core this connection feeds and drains.
	engine *chat.Engine

	// wake signals the writer that the outbound queue has work.
	// Capacity 1 so redundant wakeups coalesce and senders never block.
	wake chan struct{}

	// closing is closed once to ask the writer to flush and shut the socket.
	closing chan struct{}

	// closeOnce guards the closing channel close.
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// newWSConn constructs the transport handle for an upgraded connection.
func newWSConn(sock *websocket.Conn, ip string, engine *chat.Engine) *wsConn {
	id := randx.ConnectionID()

	return &wsConn{
		id:      id,
		ip:      ip,
		sock:    sock,
		engine:  engine,
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		logger: logx.Logger().With().
			Str("conn_id", id).
			Str("remote_ip", ip).
			Logger(),
	}
}

// ID implements chat.Conn.
func (c *wsConn) ID() string {
	return c.id
}

// RemoteIP implements chat.Conn.
func (c *wsConn) RemoteIP() string {
	return c.ip
}

// WakeWriter implements chat.Conn. Never blocks; a wakeup already pending
// covers this one too.
func (c *wsConn) WakeWriter() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// RequestClose implements chat.Conn. The writer flushes pending frames, sends
// the close frame, and shuts the socket; registry cleanup follows from the
// read loop observing the closed socket.
func (c *wsConn) RequestClose() {
	c.closeOnce.Do(func() {
		close(c.closing)
	})
}

// ReadPump reads frames from the socket and feeds them to the engine's task
// queue until the connection dies, then tears down the registry state.
func (c *wsConn) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.sock.SetReadLimit(maxMessageSize)

	if err := c.sock.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.engine.Dispatch(c, data)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the read loop terminates.
func (c *wsConn) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.engine.Disconnected(c)
	c.RequestClose()

	if err := c.sock.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// WritePump is the sole writer for this socket. It drains the outbound queue
// on wakeups, keeps the heartbeat alive, and flushes before closing.
func (c *wsConn) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.sock.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case <-c.wake:
			if !c.flushOutbound() {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.closing:
			// Deliver whatever was queued before the close was requested,
			// the departure notice included.
			c.flushOutbound()
			c.writeCloseMessage()
			return
		}
	}
}

// flushOutbound drains the connection's queue and writes every frame, in FIFO
// order. Returns false if the writer loop should terminate.
func (c *wsConn) flushOutbound() bool {
	for _, frame := range c.engine.DrainOutbound(c) {
		if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			c.logger.Error().Err(err).Msg("Failed to set write deadline")
			return false
		}

		if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.logger.Warn().Err(err).Msg("Error writing frame")
			return false
		}
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the writer loop should terminate due to write failure.
func (c *wsConn) writePingMessage() bool {
	if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// writeCloseMessage sends a normal-closure close frame, best effort.
func (c *wsConn) writeCloseMessage() {
	if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	closeFrame := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Disconnect")
	if err := c.sock.WriteMessage(websocket.CloseMessage, closeFrame); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing close message")
	}
}
