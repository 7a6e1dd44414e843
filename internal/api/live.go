package api

import (
	"encoding/json"
	"net/http"

	"github.com/zoravur/pgmock/internal/protocol"
)

// handleLive reports every execute_lazy stream currently open, for
// debugging a stuck or slow client.
func handleLive(w http.ResponseWriter, r *http.Request, reg *protocol.Registry) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reg.Snapshot())
}
