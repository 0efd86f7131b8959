package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/session"
)

const (
	maxEventSize = 64 << 10
	writeTimeout = 10 * time.Second
)

// EventsHandler upgrades GET /ws to a websocket bound to one UI session.
// Browser events arrive as JSON text frames; every rendered update the
// session publishes is written back as a JSON text frame.
type EventsHandler struct {
	logger   *common.Logger
	sessions *session.Manager
}

// NewEventsHandler creates a new websocket events handler.
func NewEventsHandler(logger *common.Logger, sessions *session.Manager) *EventsHandler {
	return &EventsHandler{logger: logger, sessions: sessions}
}

// ServeHTTP handles GET /ws?session={id}.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, created := h.sessions.GetOrCreate(sessionID(r))
	logger := h.logger.ForSession(s.ID())

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	// Deadlines set by the http.Server survive the hijack.
	conn.SetDeadline(time.Time{})
	fc := &frameConn{conn: conn}
	defer conn.Close()

	if created {
		logger.Debug().Msg("websocket opened for unknown session, started a new one")
	}

	subID, updates := s.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(fc, updates, logger)
	}()

	for {
		payload, err := fc.readText()
		if err != nil {
			if err != io.EOF {
				logger.Debug().Err(err).Msg("websocket read ended")
			}
			break
		}
		var ev session.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			logger.Warn().Err(err).Msg("ignoring malformed event")
			continue
		}
		if err := s.Handle(r.Context(), ev); err != nil {
			logger.Warn().Err(err).Str("event", ev.Type).Msg("event rejected")
		}
	}

	s.Unsubscribe(subID)
	<-done
}

// writeLoop sends updates until the subscription is closed. A failed write
// closes the connection so the read loop exits too.
func (h *EventsHandler) writeLoop(fc *frameConn, updates <-chan session.Update, logger *common.Logger) {
	for u := range updates {
		data, err := json.Marshal(u)
		if err != nil {
			logger.Error().Err(err).Msg("failed to encode update")
			continue
		}
		if err := fc.write(ws.NewTextFrame(data)); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			fc.conn.Close()
			for range updates {
			}
			return
		}
	}
	// The session was closed; tell the browser and drop the connection.
	fc.write(ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusGoingAway, "session closed")))
	fc.conn.Close()
}

// frameConn serialises frame writes from the update writer and the control
// replies issued by the reader.
type frameConn struct {
	conn net.Conn
	mu   sync.Mutex
}

func (c *frameConn) write(f ws.Frame) error {
	b, err := ws.CompileFrame(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err = c.conn.Write(b)
	return err
}

// readText returns the payload of the next text frame, answering pings and
// close frames on the way. io.EOF means the peer closed the socket.
func (c *frameConn) readText() ([]byte, error) {
	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			return nil, err
		}
		if header.Length > maxEventSize {
			c.write(ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusMessageTooBig, "event too large")))
			return nil, fmt.Errorf("frame of %d bytes exceeds limit", header.Length)
		}
		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return nil, err
		}
		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpText:
			return payload, nil
		case ws.OpPing:
			if err := c.write(ws.NewPongFrame(payload)); err != nil {
				return nil, err
			}
		case ws.OpClose:
			c.write(ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, "")))
			return nil, io.EOF
		}
	}
}
