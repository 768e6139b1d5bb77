package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ireporter/ireporter-api/realtime"
)

// Realtime exposes the websocket endpoint
type Realtime struct {
	Hub *realtime.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the browser client connects cross-origin from the web frontend
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and pumps messages until it dies. The
// connection stays anonymous until the client sends its register event.
func (h Realtime) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	client := realtime.NewClient(conn, h.Hub)
	client.Run()
}
