package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zoravur/pgmock/internal/api"
	"github.com/zoravur/pgmock/internal/engine"
	"github.com/zoravur/pgmock/internal/protocol"
)

// Server runs the HTTP and WebSocket surface over one in-process
// MockDatabase.
type Server struct {
	httpServer *http.Server
	DB         *engine.MockDatabase
	log        *zap.Logger
}

func NewServer(addr string, log *zap.Logger) *Server {
	db := engine.NewMockDatabase(log)
	reg := protocol.NewRegistry()
	mux := api.SetupRoutes(db, reg, log)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		DB:  db,
		log: log,
	}
}

func (s *Server) Run() error {
	go func() {
		s.log.Info("listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
