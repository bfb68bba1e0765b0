package stream

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the subscriber to answer a Ping.
	pongWait = 60 * time.Second

	// frequency at which the hub pings subscribers.
	pingPeriod = (pongWait * 9) / 10

	// subscribers only send control frames; anything larger is a protocol violation.
	maxMessageSize = 512

	// number of encoded events buffered per subscriber.
	sendBuffer = 16
)

// Subscriber is one WebSocket connection attached to the Hub.
type Subscriber struct {
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel of events waiting to be written. Closed by the hub.
	send chan []byte

	logger zerolog.Logger
}

// Serve attaches conn to the hub and blocks until the subscriber goes away.
// The write pump runs on its own goroutine; the read pump runs on the caller's.
func (h *Hub) Serve(conn *websocket.Conn) {
	sub := &Subscriber{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: h.logger.With().Str("remote_addr", conn.RemoteAddr().String()).Logger(),
	}

	select {
	case h.register <- sub:
	case <-h.done:
		sub.logger.Info().Msg("Stream hub stopped, rejecting subscriber.")
		conn.Close()
		return
	}

	go sub.writePump()

	sub.readPump()
}

// readPump discards inbound frames and detects disconnects.
func (s *Subscriber) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Subscriber connection close error")
		}
	}()

	s.conn.SetReadLimit(maxMessageSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Subscriber disconnected unexpectedly")
			}
			return
		}
	}
}

// writePump writes events from the send channel and pings the subscriber.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Subscriber connection close error in write pump")
		}
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !s.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// writeQueuedMessage writes one event, or a close frame once the hub closed the channel.
// Returns false if the write pump should terminate.
func (s *Subscriber) writeQueuedMessage(message []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			s.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		s.logger.Warn().Err(err).Msg("Error writing stream event")
		return false
	}

	return true
}
