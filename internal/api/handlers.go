package api

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/engine"
	"github.com/zoravur/pgmock/internal/logutil"
)

// Handlers holds the resources every HTTP route needs: the mock database
// and a logger, both injected from app.Server.
type Handlers struct {
	DB  *engine.MockDatabase
	Log *zap.Logger
}

// handleQuery runs every statement in the request body and returns one
// JSON object per ResultSet. A failure on statement N aborts the rest and
// the response is a 400 carrying only the error text; statements before
// it have already taken effect but their results are not returned.
func (h *Handlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	results, err := h.DB.Execute(string(body))
	if err != nil {
		h.Log.Warn("query failed", logutil.Values(zap.Error(err), zap.ByteString("sql", body)))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(encodeResults(results))
}

// handleQueryOne requires exactly one statement and returns its
// ResultSet directly, rather than an array.
func (h *Handlers) handleQueryOne(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	result, err := h.DB.ExecuteOne(string(body))
	if err != nil {
		h.Log.Warn("query failed", logutil.Values(zap.Error(err), zap.ByteString("sql", body)))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(encodeResult(result))
}

// handleCatalog reports the current set of tables with their column
// names, ordinals and row counts, for clients that want to render a
// schema browser.
func (h *Handlers) handleCatalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.DB.Snapshot())
}

func encodeResults(results []*engine.ResultSet) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, rs := range results {
		out[i] = encodeResult(rs)
	}
	return out
}

func encodeResult(rs *engine.ResultSet) map[string]any {
	return map[string]any{
		"columns":      rs.Columns,
		"rows":         rs.Native(),
		"rowsAffected": rs.RowsAffected,
	}
}
