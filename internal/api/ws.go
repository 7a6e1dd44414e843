package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/engine"
	"github.com/zoravur/pgmock/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades connections to the execute_lazy streaming protocol:
// one request per frame, a Result frame per statement, Done on success.
type WSHandler struct {
	DB       *engine.MockDatabase
	Registry *protocol.Registry
	Log      *zap.Logger
}

func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("ws upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
					h.Log.Info("ws closed", zap.Int("code", ce.Code))
				} else {
					h.Log.Warn("ws closed abnormally", zap.Int("code", ce.Code), zap.String("text", ce.Text))
				}
			} else {
				h.Log.Error("ws read error", zap.Error(err))
			}
			return
		}

		protocol.HandleMessage(conn, msg, h.Registry, h.DB, h.Log)
	}
}
