package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hausnet/knxnetip/telegram"
)

// Stream connection tuning: the deadline for each write, how long to wait for
// a pong, and how often to send a ping.
const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// telegramMessage is the JSON shape of one message sent over the stream.
type telegramMessage struct {
	Kind        string `json:"kind"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Value       any    `json:"value,omitempty"`
	At          string `json:"at"`
}

// handleStream upgrades the connection to a WebSocket and relays every
// telegram the bus client delivers until the client disconnects. Each
// connection gets its own subscriber handle — the routing and tunnel
// clients already fan telegrams out per-subscriber, so no local hub or
// broadcast fan-out is needed here.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "bus_unavailable", "no bus client configured")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("monitor stream: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	subID := uuid.New()
	telegrams := s.bus.Subscribe(subID)
	defer s.bus.Unsubscribe(subID)

	done := make(chan struct{})
	go s.drainClientReads(conn, done)

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case t, ok := <-telegrams:
			if !ok {
				return
			}
			if err := s.writeTelegram(conn, t); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught by write failure
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Server) writeTelegram(conn *websocket.Conn, t telegram.Telegram) error {
	msg := telegramMessage{
		Kind:        t.Kind.String(),
		Source:      t.Source.String(),
		Destination: t.Destination.String(),
		Value:       t.Value,
		At:          time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Warn("monitor stream: marshal telegram failed", "error", err)
		return nil
	}
	//nolint:errcheck // Best-effort deadline; write error returned below
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// drainClientReads discards any messages the client sends (the stream is
// read-only) and closes done once the connection drops, so the select loop
// in handleStream can unwind.
func (s *Server) drainClientReads(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	//nolint:errcheck // Best-effort deadline on connection setup
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
