package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/notifier"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// EscalationFeedHandler upgrades the connection and attaches it to the
// escalation broadcast hub. The read loop only exists to notice closes.
func EscalationFeedHandler(hub *notifier.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket upgrade failed")
			return
		}

		hub.Add(conn)

		go func() {
			defer hub.Remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
