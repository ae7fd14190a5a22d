// Package ops exposes the operator surface: health, Prometheus metrics,
// and a read-only view of active conversations.
package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hearthlabs/hearth/pkg/ports"
)

// Server is the operator HTTP server.
type Server struct {
	store ports.StateStore
	reg   *prometheus.Registry
	log   *slog.Logger
	http  *http.Server
}

// NewServer builds the operator server listening on addr.
func NewServer(addr string, store ports.StateStore, reg *prometheus.Registry, log *slog.Logger) *Server {
	s := &Server{store: store, reg: reg, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/sessions", s.handleSessions)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the operator surface until Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info("ops server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// sessionInfo is one active conversation in the /sessions listing.
type sessionInfo struct {
	UserID  string `json:"user_id"`
	Thread  string `json:"thread"`
	GuildID string `json:"guild_id,omitempty"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIDs, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("listing sessions", "err", err)
		http.Error(w, "listing sessions failed", http.StatusInternalServerError)
		return
	}

	sessions := make([]sessionInfo, 0, len(userIDs))
	for _, userID := range userIDs {
		record, err := s.store.Load(ctx, userID)
		if err != nil {
			// Expired between List and Load; skip.
			continue
		}
		sessions = append(sessions, sessionInfo{
			UserID:  userID,
			Thread:  string(record.Thread),
			GuildID: record.GuildID,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sessions)
}
