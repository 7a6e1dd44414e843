package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/engine"
)

// HandleMessage decodes one client frame and, for an execute_lazy
// request, streams back a Result frame per statement followed by Done
// (or an Error frame on the first failure). Every other message type is
// rejected as an error frame; this endpoint only does one thing.
func HandleMessage(conn *websocket.Conn, raw []byte, reg *Registry, mdb *engine.MockDatabase, log *zap.Logger) {
	msg, err := DecodeMessage(raw)
	if err != nil {
		log.Warn("ws decode error", zap.Error(err))
		return
	}

	if msg.Type != "execute_lazy" {
		conn.WriteJSON(Error{Message: Message{Type: "error", ID: msg.ID}, Error: "unknown message type"})
		return
	}

	var req ExecuteLazy
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.WriteJSON(Error{Message: Message{Type: "error", ID: msg.ID}, Error: "invalid execute_lazy frame"})
		return
	}

	id := uuid.NewString()
	reg.Start(id, req.SQL)
	defer reg.Finish(id)

	results, err := mdb.ExecuteLazy(req.SQL)
	if err != nil {
		conn.WriteJSON(Error{Message: Message{Type: "error", ID: id}, Error: err.Error()})
		return
	}

	for lr := range results {
		if lr.Err != nil {
			conn.WriteJSON(Error{Message: Message{Type: "error", ID: id}, Error: lr.Err.Error()})
			return
		}
		conn.WriteJSON(Result{
			Message:      Message{Type: "result", ID: id},
			Columns:      lr.Result.Columns,
			Rows:         lr.Result.Native(),
			RowsAffected: lr.Result.RowsAffected,
		})
	}
	conn.WriteJSON(Done{Message: Message{Type: "done", ID: id}})
}
