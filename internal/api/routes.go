// routes.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/engine"
	"github.com/zoravur/pgmock/internal/protocol"
)

// SetupRoutes wires the REST and WebSocket surface over one
// MockDatabase. reg tracks in-flight execute_lazy streams so
// /api/live can report them.
func SetupRoutes(db *engine.MockDatabase, reg *protocol.Registry, log *zap.Logger) http.Handler {
	h := &Handlers{DB: db, Log: log}
	ws := &WSHandler{DB: db, Registry: reg, Log: log}

	r := chi.NewRouter()

	// Handle the WebSocket route before any middleware that wraps the
	// response writer; the upgrade needs the raw http.ResponseWriter.
	r.Get("/api/ws", ws.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(LoggingMiddleware)

		r.Route("/api", func(r chi.Router) {
			r.Post("/query", h.handleQuery)
			r.Post("/query/one", h.handleQueryOne)
			r.Get("/catalog", h.handleCatalog)
			r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
				handleLive(w, r, reg)
			})
		})
	})

	fs := http.FileServer(http.Dir("web"))
	r.Handle("/*", fs)

	return r
}
