package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// handleTelemetry upgrades to a websocket and pushes every published
// telemetry update as a JSON text message.
func (s *Server) handleTelemetry(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.config.Hub.Subscribe()
	defer cancel()

	// Clients never send anything useful; reading only detects the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if t, ok := s.config.Hub.Latest(); ok {
		if err := s.writeTelemetry(conn, t); err != nil {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "monitor shutting down"),
				time.Now().Add(time.Second))
			return
		case t := <-updates:
			if err := s.writeTelemetry(conn, t); err != nil {
				s.logger.Debug("telemetry client gone", "err", err)
				return
			}
		}
	}
}

func (s *Server) writeTelemetry(conn *websocket.Conn, t Telemetry) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(t)
}
