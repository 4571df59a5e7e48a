/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package server exposes the latest engine snapshot over HTTP and streams
// every new snapshot to WebSocket clients. It is read-only.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/phuonguno98/unomon/pkg/metrics"
	"github.com/phuonguno98/unomon/pkg/version"
)

const shutdownTimeout = 5 * time.Second

// Health states reported by /api/health.
const (
	StatusStarting = "starting"
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Server serves engine snapshots.
type Server struct {
	logger     *slog.Logger
	router     *mux.Router
	handler    http.Handler // router wrapped in CORS handling
	hub        *Hub
	instanceID string
	startedAt  time.Time

	mu     sync.RWMutex
	latest *metrics.Snapshot
}

// NewServer creates a new server and sets up its routes.
func NewServer(logger *slog.Logger) *Server {
	s := &Server{
		logger:     logger,
		router:     mux.NewRouter(),
		hub:        NewHub(logger),
		instanceID: uuid.New().String(),
		startedAt:  time.Now(),
	}

	s.setupRoutes()
	// CORS wraps the router so preflights are answered before route matching
	s.handler = corsMiddleware(s.router)
	return s
}

func (s *Server) setupRoutes() {
	// Add logging middleware
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/api/snapshot", s.handleGetSnapshot).Methods("GET")
	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET")
	s.router.HandleFunc("/api/health", s.handleGetHealth).Methods("GET")
	s.router.HandleFunc("/api/stream", s.handleStream).Methods("GET")
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Publish records snapshot as the latest one and pushes it to stream clients.
func (s *Server) Publish(snapshot *metrics.Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()

	message, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("Failed to marshal snapshot", "error", err)
		return
	}
	s.hub.Broadcast(message)
}

// Latest returns the most recent snapshot, or nil before the first one.
func (s *Server) Latest() *metrics.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Run publishes every snapshot received on in until ctx is cancelled or in is closed.
func (s *Server) Run(ctx context.Context, in <-chan *metrics.Snapshot) {
	go s.hub.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-in:
			if !ok {
				return
			}
			s.Publish(snapshot)
		}
	}
}

// ListenAndServe serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// handleGetSnapshot returns the latest snapshot, or 503 before the first tick.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.Latest()
	if snapshot == nil {
		s.writeError(w, "No snapshot available yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, snapshot)
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     version.Version,
		"commit":      version.Commit,
		"date":        version.Date,
		"instance_id": s.instanceID,
		"started_at":  s.startedAt.UTC().Format(time.RFC3339),
	})
}

// HealthReport summarizes per-metric freshness of the latest snapshot.
type HealthReport struct {
	Status   string                       `json:"status"`
	Sequence uint64                       `json:"sequence"`
	Metrics  map[string]metrics.Freshness `json:"metrics"`
}

// handleGetHealth reports whether every enabled metric refreshed on the latest tick.
func (s *Server) handleGetHealth(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.Latest()
	if snapshot == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(HealthReport{Status: StatusStarting, Metrics: map[string]metrics.Freshness{}}); err != nil {
			s.logger.Error("Failed to write JSON response", "error", err)
		}
		return
	}

	s.writeJSON(w, healthOf(snapshot))
}

func healthOf(snapshot *metrics.Snapshot) HealthReport {
	report := HealthReport{
		Status:   StatusOK,
		Sequence: snapshot.Sequence,
		Metrics:  make(map[string]metrics.Freshness),
	}

	add := func(name string, f metrics.Freshness) {
		report.Metrics[name] = f
		if f.Stale {
			report.Status = StatusDegraded
		}
	}

	if snapshot.CPU != nil {
		add("cpu", snapshot.CPU.Freshness)
	}
	if snapshot.Memory != nil {
		add("memory", snapshot.Memory.Freshness)
	}
	if snapshot.Disk != nil {
		add("disk", snapshot.Disk.Freshness)
	}
	if snapshot.NetworkSpeed != nil {
		add("network_speed", snapshot.NetworkSpeed.Freshness)
	}
	if snapshot.NetworkTraffic != nil {
		add("network_traffic", snapshot.NetworkTraffic.Freshness)
	}

	return report
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
