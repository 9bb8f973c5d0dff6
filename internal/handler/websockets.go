package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akashabrah/StreetSense/internal/dto"
	"github.com/akashabrah/StreetSense/internal/logger"
	"github.com/akashabrah/StreetSense/internal/service/session"
	hub "github.com/akashabrah/StreetSense/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler connects a demo page to the live feed. The viewer gets
// the current state right away, then every broadcast of the hub.
func ViewWebsocketHandler(hubService *hub.HubService, controller *session.Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		// written before Register so the hub is still the only writer afterwards
		initial, err := json.Marshal(dto.StateMessage{Type: dto.MessageState, State: controller.State()})
		if err == nil {
			err = connection.WriteMessage(websocket.TextMessage, initial)
		}
		if err != nil {
			logger.Error("Failed to send initial state: %v", err)
			connection.Close()
			return
		}

		hubService.Register(connection)
		defer hubService.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer left normally")
				} else {
					logger.Warning("Viewer left with error: %v", err)
				}
				break
			}
		}
	}
}
