// Package api exposes the read-only operations endpoints: a health
// check and a JSON view of the current schedule occupancy.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
)

// Server serves the ops HTTP API.
type Server struct {
	store *store.Store
	log   logger.Logger
	http  *http.Server
}

// New builds a server listening on addr.
func New(addr string, st *store.Store, log logger.Logger) *Server {
	if log == nil {
		log = logger.Noop()
	}
	s := &Server{store: st, log: log}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/schedule", s.handleSchedule)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Info("ops api listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type scheduleSlot struct {
	Title string `json:"title"`
	Taken int    `json:"taken"`
	Free  int    `json:"free"`
}

type scheduleCategory struct {
	Name         string         `json:"name"`
	Capacity     int            `json:"capacity"`
	LimitPerUser int            `json:"limitPerUser"`
	Slots        []scheduleSlot `json:"slots"`
}

type scheduleResponse struct {
	Categories []scheduleCategory `json:"categories"`
}

// handleSchedule returns occupancy without user names: the API is
// unauthenticated, so bookings stay private.
func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()

	resp := scheduleResponse{Categories: []scheduleCategory{}}
	for _, name := range s.store.Schema().Categories {
		cat, ok := snap.Categories[name]
		if !ok {
			continue
		}
		out := scheduleCategory{
			Name:         name,
			Capacity:     cat.Capacity,
			LimitPerUser: cat.LimitPerUser,
			Slots:        []scheduleSlot{},
		}
		for _, slot := range cat.Slots {
			if !slot.Configured() {
				continue
			}
			taken := len(slot.Users)
			free := cat.Capacity - taken
			if free < 0 {
				free = 0
			}
			out.Slots = append(out.Slots, scheduleSlot{Title: slot.Title, Taken: taken, Free: free})
		}
		resp.Categories = append(resp.Categories, out)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
