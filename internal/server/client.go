// Package server manages individual WebSocket sessions, handling the
// read/write pumps, inbound protocol dispatch, rate limiting, and
// lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendQueueSize = 256

	echoPrefix = "Echo: "
)

// frame is one outbound WebSocket message: snapshot broadcasts are binary,
// echoes and greetings are text. Frames are written in queue order.
type frame struct {
	messageType int
	data        []byte
}

// Client is one connection session. It owns the socket, a buffered queue
// of outbound frames fed by both its own replies and hub broadcasts, and
// the connection identity that keys its player in the world.
type Client struct {
	conn           *websocket.Conn
	send           chan frame
	hub            *Hub
	connID         string
	addr           string
	name           string
	closed         bool
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig
}

// NewClient creates a session for an upgraded connection. Each session
// gets a fresh uuid as its connection identity; the display name is
// derived from the remote address.
func NewClient(conn *websocket.Conn, hub *Hub, addr string) *Client {
	cfg := currentConfig()
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}
	limiter := newRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval)

	return &Client{
		conn:           conn,
		send:           make(chan frame, sendQueueSize),
		hub:            hub,
		connID:         uuid.NewString(),
		addr:           addr,
		name:           playerName(addr),
		maxMessageSize: cfg.MaxMessageSize,
		rateLimiter:    limiter,
		rateLimit:      cfg.RateLimit,
	}
}

// playerName derives a display name from the remote address, matching the
// Player_<port> convention clients expect.
func playerName(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil && port != "" {
		return "Player_" + port
	}
	return "Player_" + addr
}

// enqueue queues an outbound frame without blocking. A full queue drops
// the frame; broadcasts are superseded by the next tick and echoes are
// best-effort.
func (c *Client) enqueue(f frame) bool {
	select {
	case c.send <- f:
		return true
	default:
		log.Printf("Dropping outbound frame for %s: send queue full", c.addr)
		return false
	}
}

// setupReadConnection configures deadlines and control-frame handlers. The
// pong handler extends the read deadline when the peer answers our
// keepalive pings; the ping handler answers the peer with a pong carrying
// the identical payload.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Error setting initial read deadline for %s: %v", c.addr, err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in pong handler for %s: %v", c.addr, err)
		}
		return nil
	})
	c.conn.SetPingHandler(func(appData string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Error setting read deadline in ping handler for %s: %v", c.addr, err)
		}
		err := c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
}

// logReadError records why the read loop is stopping. Every read error
// ends this session and only this session.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("Message from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("Client %s disconnected: %v", c.addr, err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		log.Printf("Client %s connection closed: %v", c.addr, err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		log.Printf("Unexpected WebSocket error from %s: %v", c.addr, err)
	default:
		log.Printf("WebSocket read error from %s: %v", c.addr, err)
	}
}

// checkRateLimit verifies if the session has exceeded its inbound rate
// limit and returns true if the frame should be processed.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		log.Printf("Rate limit exceeded for %s (%d messages per %s); discarding frame", c.addr, c.rateLimit.Burst, c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// handleFrame dispatches one inbound frame. Text frames are echoed back;
// binary frames of exactly 12 bytes are position updates; any other binary
// frame is logged and ignored.
func (c *Client) handleFrame(messageType int, payload []byte) {
	switch messageType {
	case websocket.TextMessage:
		log.Printf("Text from %s: %s", c.addr, payload)
		c.enqueue(frame{messageType: websocket.TextMessage, data: []byte(echoPrefix + string(payload))})
	case websocket.BinaryMessage:
		c.handleBinaryFrame(payload)
	}
}

func (c *Client) handleBinaryFrame(payload []byte) {
	if len(payload) != positionUpdateSize {
		log.Printf("Ignoring %d-byte binary frame from %s: unknown format", len(payload), c.addr)
		return
	}

	pos, err := DecodePositionUpdate(payload)
	if err != nil {
		log.Printf("Dropping position update from %s: %v", c.addr, err)
		return
	}
	c.hub.world.UpdatePosition(c.connID, pos)
}

func (c *Client) readPump() {
	defer func() {
		// During hub shutdown the event loop is gone; don't block on it.
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error closing connection in readPump: %v", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			break
		}

		if !c.checkRateLimit() {
			continue
		}

		c.handleFrame(messageType, payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when
// the pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case f, ok := <-c.send:
		return c.writeFrame(f, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}
}

// writeFrame writes one outbound frame with its own message type and
// returns false if the connection should be closed.
func (c *Client) writeFrame(f frame, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for %s: %v", c.addr, err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing message to %s: %v", c.addr, err)
		}
		return false
	}
	return true
}

// writeCloseMessage sends a close frame to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing close message to %s: %v", c.addr, err)
		}
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Error setting write deadline for ping to %s: %v", c.addr, err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing ping message to %s: %v", c.addr, err)
		}
		return false
	}
	return true
}
