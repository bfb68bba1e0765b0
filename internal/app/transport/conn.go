/*
Package transport connects a chat session to the chat server over a WebSocket.

This file defines Conn, the client side of the connection. Outbound frames are queued on
a buffered channel and written by the write pump, which also keeps the connection alive
with periodic pings. Inbound text frames are handed to the registered receive callback
from the read pump, one at a time and in arrival order.
*/
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed between two frames (or pongs) from the server.
	pongWait = 60 * time.Second

	// frequency at which the client sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the server.
	maxMessageSize = 8192

	// DefaultSendQueueSize is the number of outbound frames buffered before Send reports the channel as full.
	DefaultSendQueueSize = 256

	// DefaultHandshakeTimeout bounds the opening handshake when Options leaves it unset.
	DefaultHandshakeTimeout = 10 * time.Second
)

// Options tunes Dial.
type Options struct {
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration

	// SendQueueSize is the capacity of the outbound queue.
	SendQueueSize int

	// Header is sent with the handshake request.
	Header http.Header
}

// Conn is an open WebSocket connection to the chat server.
type Conn struct {
	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// done is closed by Close; the write pump then ends the connection.
	done      chan struct{}
	closeOnce sync.Once

	// running guards against a second Run.
	running atomic.Bool

	mu      sync.RWMutex
	handler func(text string)

	// structured logger with the server address.
	logger zerolog.Logger
}

// Dial opens a WebSocket connection to rawURL.
func Dial(ctx context.Context, rawURL string, opts Options) (*Conn, error) {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.SendQueueSize <= 0 {
		opts.SendQueueSize = DefaultSendQueueSize
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}

	wsConn, res, err := dialer.DialContext(ctx, rawURL, opts.Header)
	if err != nil {
		if res != nil {
			return nil, fmt.Errorf("transport: dial %s: %w (status %d)", rawURL, err, res.StatusCode)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", rawURL, err)
	}

	c := &Conn{
		conn:   wsConn,
		send:   make(chan []byte, opts.SendQueueSize),
		done:   make(chan struct{}),
		logger: logx.Component("transport").With().Str("server_url", rawURL).Logger(),
	}

	c.logger.Info().Msg("Connected to chat server.")
	return c, nil
}

// OnReceive registers the callback invoked for every inbound text frame.
// Frames read before a callback is registered are dropped.
func (c *Conn) OnReceive(handler func(text string)) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Send queues text for writing without blocking.
// It returns errs.ErrChannelFull when the queue is full and errs.ErrChannelClosed
// once the connection has been closed.
func (c *Conn) Send(text string) error {
	select {
	case <-c.done:
		return errs.NewError(errs.ErrChannelClosed)
	default:
	}

	select {
	case c.send <- []byte(text):
		return nil
	case <-c.done:
		return errs.NewError(errs.ErrChannelClosed)
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame.")
		return errs.NewError(errs.ErrChannelFull)
	}
}

// Close ends the connection with a normal close frame. It is safe to call more than once.
// The frame is written by the pumps started by Run. Before Run the socket is closed directly
// and a later Run returns nil at once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.running.CompareAndSwap(false, true) {
			if err := c.conn.Close(); err != nil {
				c.logger.Debug().Err(err).Msg("Closing idle connection failed.")
			}
		}
	})
}

// Closed is closed once Close has been called or either pump has stopped.
func (c *Conn) Closed() <-chan struct{} {
	return c.done
}

// Run serves the connection until ctx is canceled, Close is called or the server goes away.
// A normal closure returns nil.
func (c *Conn) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		select {
		case <-c.done:
			return nil
		default:
			return fmt.Errorf("transport: connection already running")
		}
	}

	readErr := make(chan error, 1)
	writeDone := make(chan struct{})

	go func() {
		readErr <- c.readPump()
	}()
	go func() {
		defer close(writeDone)
		c.writePump()
	}()

	var err error
	select {
	case <-ctx.Done():
		c.Close()
		err = <-readErr
		if err == nil {
			err = ctx.Err()
		}
	case err = <-readErr:
		c.Close()
	}

	<-writeDone
	return err
}

// readPump reads frames until the connection fails or is closed.
func (c *Conn) readPump() error {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return errs.Wrap(errs.ErrChannelClosed, err)
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return c.readError(err)
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return errs.Wrap(errs.ErrChannelClosed, err)
		}

		if msgType != websocket.TextMessage {
			c.logger.Debug().Int("frame_type", msgType).Msg("Ignoring non-text frame.")
			continue
		}

		c.mu.RLock()
		handler := c.handler
		c.mu.RUnlock()

		if handler != nil {
			handler(string(data))
		}
	}
}

// readError classifies the error that ended the read pump.
func (c *Conn) readError(err error) error {
	select {
	case <-c.done:
		// Local close; the write pump tore the connection down.
		return nil
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info().Err(err).Msg("Server closed the connection.")
		return nil
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		c.logger.Warn().Err(err).Msg("Connection closed unexpectedly.")
	} else {
		c.logger.Error().Err(err).Msg("Error reading frame.")
	}
	return errs.Wrap(errs.ErrChannelClosed, err)
}

// writePump writes queued frames and pings until Close is called or a write fails.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in write pump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.writeFrame(websocket.TextMessage, message) {
				c.Close()
				return
			}

		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				c.Close()
				return
			}

		case <-c.done:
			closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			c.writeFrame(websocket.CloseMessage, closeMessage)
			return
		}
	}
}

// writeFrame writes one frame under the write deadline.
// Returns false if the write pump should terminate.
func (c *Conn) writeFrame(frameType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(frameType, data); err != nil {
		if frameType == websocket.CloseMessage {
			c.logger.Debug().Err(err).Msg("Error writing close frame")
		} else {
			c.logger.Error().Err(err).Int("frame_type", frameType).Msg("Error writing frame")
		}
		return false
	}

	return true
}
