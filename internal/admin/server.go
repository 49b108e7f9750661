// Package admin serves the local management API. It binds to loopback
// by default and carries no authentication of its own; anyone who can
// reach it is treated as the owner.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/valetproj/valet/internal/logging"
	"github.com/valetproj/valet/internal/pairing"
)

// Server exposes pairing management over HTTP.
type Server struct {
	gate *pairing.Gate
	http *http.Server
}

// NewServer builds the admin server listening on addr.
func NewServer(addr string, gate *pairing.Gate) *Server {
	s := &Server{gate: gate}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/pairings", s.handleList)
	r.Post("/pairings/approve", s.handleApprove)
	r.Delete("/pairings/{platform}/{userID}", s.handleRevoke)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	logging.Infof("admin", "listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.gate.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]pairingView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewOf(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

type approveRequest struct {
	Code       string `json:"code"`
	ApprovedBy string `json:"approved_by"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ApprovedBy == "" {
		req.ApprovedBy = "admin"
	}

	rec, err := s.gate.Approve(req.Code, req.ApprovedBy)
	switch {
	case errors.Is(err, pairing.ErrInvalidCode), errors.Is(err, pairing.ErrExpiredCode):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(*rec))
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	userID := chi.URLParam(r, "userID")
	if err := s.gate.Revoke(platform, userID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pairingView struct {
	Platform   string    `json:"platform"`
	UserID     string    `json:"user_id"`
	Display    string    `json:"display,omitempty"`
	ApprovedAt time.Time `json:"approved_at"`
	ApprovedBy string    `json:"approved_by"`
}

func viewOf(r pairing.Record) pairingView {
	return pairingView{
		Platform:   r.Platform,
		UserID:     r.UserID,
		Display:    r.Display,
		ApprovedAt: r.ApprovedAt,
		ApprovedBy: r.ApprovedBy,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("admin", "encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
