package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Server is the HTTP gateway in front of a Service
type Server struct {
	svc         *Service
	secret      *AdminSecret
	allowOrigin string
	log         *slog.Logger
	upgrader    websocket.Upgrader
}

// NewServer creates the gateway
func NewServer(svc *Service, secret *AdminSecret, allowOrigin string, logger *slog.Logger) *Server {
	s := &Server{
		svc:         svc,
		secret:      secret,
		allowOrigin: allowOrigin,
		log:         logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the routed handler with CORS and request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/reservations", s.HandleReservations)
	mux.HandleFunc("/reservations/", s.HandleReservation)
	mux.HandleFunc("/events", s.HandleEvents)
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/admin-login", s.HandleAdminLogin)
	mux.HandleFunc("/api/download", s.HandleDownload)
	mux.HandleFunc("/api/config", s.HandleConfig)
	mux.HandleFunc("/healthz", s.HandleHealth)

	return logRequests(s.log, s.cors(mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Open event streams are cancelled when shutdown starts.
func (s *Server) Run(ctx context.Context, addr string) error {
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelStreams)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "subscribers", s.svc.Broadcaster().Count())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.allowOrigin == "*" {
		return true
	}
	return strings.EqualFold(origin, s.allowOrigin)
}
