package httpadapter

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PabloGalante/scam-harness/internal/observability"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 5 * time.Second
	streamBuffer        = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// same policy as withCORS
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream pushes one JSON State per transition until the client goes away.
// Slow clients skip intermediate states but always see the latest one.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	states, unsubscribe := s.svc.Subscribe(streamBuffer)
	defer unsubscribe()

	// The reader only exists to notice the close frame and answer pongs.
	gone := make(chan struct{})
	readWait := 2 * s.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	log.Info("state stream opened")
	defer log.Info("state stream closed")

	for {
		select {
		case st, ok := <-states:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(st); err != nil {
				log.Debug("state stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
