// Package api provides the HTTP status API for running searches.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/tradesim/internal/engine"
	"github.com/talgya/tradesim/internal/metrics"
	"github.com/talgya/tradesim/internal/persistence"
)

// RunLister is the slice of the run store the API reads.
type RunLister interface {
	Runs(limit int) ([]persistence.Run, error)
	Transactions(runID string) ([]persistence.Transaction, error)
}

// Server serves search progress over HTTP.
type Server struct {
	Progress *Progress
	Store    RunLister        // Optional; nil disables /api/v1/runs
	Metrics  *metrics.Metrics // Optional; nil disables /metrics
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
	Stop     func() // Cancels the running searches

	srv *http.Server
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	runsLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/best", s.handleBest)
	mux.HandleFunc("/api/v1/runs", RateLimitMiddleware(runsLimiter, s.handleRuns))
	mux.HandleFunc("/api/v1/runs/", RateLimitMiddleware(runsLimiter, s.handleRunDetail))
	mux.HandleFunc("/api/v1/stop", s.adminOnly(s.handleStop))
	if s.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}))
	}
	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Close shuts the server down.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

// corsMiddleware adds CORS headers for the origins listed in CORS_ORIGINS
// (comma-separated). Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require POST with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no TRADESIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	runs := s.Progress.Runs()
	done, failed := 0, 0
	for _, run := range runs {
		if run.Done {
			done++
		}
		if run.Error != "" {
			failed++
		}
	}
	writeJSON(w, map[string]any{
		"name":     "tradesim",
		"runs":     runs,
		"total":    len(runs),
		"finished": done,
		"failed":   failed,
	})
}

func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	status, path, ok := s.Progress.BestPath(r.URL.Query().Get("run"))
	if !ok {
		http.Error(w, "no such run", http.StatusNotFound)
		return
	}
	if path == nil {
		path = []engine.Transaction{}
	}
	writeJSON(w, map[string]any{
		"run":  status,
		"path": path,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "run store disabled", http.StatusNotFound)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	runs, err := s.Store.Runs(limit)
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, runs)
}

// handleRunDetail serves GET /api/v1/runs/:id, the stored best path.
func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "run store disabled", http.StatusNotFound)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "bad run id", http.StatusBadRequest)
		return
	}
	txs, err := s.Store.Transactions(id)
	if err != nil {
		slog.Error("run transactions", "run_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []persistence.Transaction{}
	}
	writeJSON(w, map[string]any{"run_id": id, "transactions": txs})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if s.Stop == nil {
		http.Error(w, "nothing to stop", http.StatusConflict)
		return
	}
	s.Stop()
	slog.Info("stop requested over API")
	writeJSON(w, map[string]bool{"stopping": true})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
