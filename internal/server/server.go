// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/rigrun-ide/internal/catalog"
	"github.com/jeranaias/rigrun-ide/internal/onprem"
	"github.com/jeranaias/rigrun-ide/internal/router"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the HTTP server.
	DefaultPort = 8788

	// MaxTaskLength bounds the task text accepted by /v1/route.
	MaxTaskLength = 100000

	// MaxRequestBodySize is the largest accepted request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	Host           string
	Port           int
	BearerToken    string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	// Health, when set, is reported by /health.
	Health *onprem.HealthRegistry

	// Version is reported by /health.
	Version string
}

// backend is the routing stack a request runs against. It is replaced as a
// whole on reload.
type backend struct {
	router *router.Router
	health *onprem.HealthRegistry
}

// Server exposes a Router over HTTP.
type Server struct {
	opts    Options
	backend atomic.Pointer[backend]
	mux     *http.ServeMux
	started time.Time

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a Server around r.
func New(r *router.Router, opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 10
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 20
	}

	s := &Server{
		opts:    opts,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.backend.Store(&backend{router: r, health: opts.Health})
	s.setupRoutes()
	return s
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
}

// Swap replaces the router and health registry used by later requests.
// Requests already in flight finish on the previous router. Stats restart
// from zero with the new router.
func (s *Server) Swap(r *router.Router, health *onprem.HealthRegistry) {
	s.backend.Store(&backend{router: r, health: health})
	log.Printf("SERVER_RELOAD | models=%d", len(r.Catalog().Models()))
}

// Router returns the router currently serving requests.
func (s *Server) Router() *router.Router {
	return s.backend.Load().router
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /v1/route", s.handleRoute)
	s.mux.HandleFunc("GET /v1/models", s.handleModels)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(s.opts.AllowedOrigins),
		RateLimitMiddleware(NewRateLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst)),
		AuthMiddleware(s.opts.BearerToken),
	)(s.mux)
}

// ============================================================================
// ROUTE HANDLER
// ============================================================================

// handleRoute handles POST /v1/route. The body is a router.RoutingContext.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var rc router.RoutingContext
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		log.Printf("Invalid request body: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if strings.TrimSpace(rc.Task) == "" {
		writeError(w, http.StatusBadRequest, "task is required")
		return
	}
	if len(rc.Task) > MaxTaskLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("task exceeds maximum length of %d bytes", MaxTaskLength))
		return
	}

	res, err := s.Router().Route(r.Context(), rc)
	if err != nil {
		log.Printf("ROUTE_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ============================================================================
// MODELS HANDLER
// ============================================================================

// ModelsResponse lists both catalogs.
type ModelsResponse struct {
	OnPrem []catalog.OnPremModel `json:"onprem"`
	Cloud  []catalog.CloudModel  `json:"cloud"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	rt := s.Router()
	resp := ModelsResponse{
		OnPrem: rt.Available(r.Context()),
		Cloud:  rt.Catalog().Models(),
	}
	if resp.OnPrem == nil {
		resp.OnPrem = []catalog.OnPremModel{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status        string                  `json:"status"`
	Version       string                  `json:"version"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Endpoints     []onprem.EndpointHealth `json:"endpoints,omitempty"`
}

// handleHealth reports "ok", or "degraded" when every probed on-prem endpoint
// failed its last probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:        "ok",
		Version:       s.opts.Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if registry := s.backend.Load().health; registry != nil {
		health.Endpoints = registry.Snapshot()
		if len(health.Endpoints) > 0 {
			degraded := true
			for _, ep := range health.Endpoints {
				if ep.Healthy {
					degraded = false
					break
				}
			}
			if degraded {
				health.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// STATS HANDLER
// ============================================================================

// StatsResponse is returned by /stats.
type StatsResponse struct {
	router.Stats
	OnPremPercent float64 `json:"onprem_rate_percent"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.Router().Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Stats:         stats,
		OnPremPercent: stats.OnPremRate(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s auth=%t", srv.Addr, s.opts.Version, s.opts.BearerToken != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    status,
		},
	})
}
