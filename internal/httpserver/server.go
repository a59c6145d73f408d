package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gql-cache/internal/client"
)

// Server exposes client statistics, rate limit state and prometheus
// metrics over HTTP for operational visibility
type Server struct {
	client *client.Client
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a new stats HTTP server
func NewServer(apiClient *client.Client, logger *zap.Logger) *Server {
	return &Server{
		client: apiClient,
		logger: logger,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	router := s.createRouter()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting stats HTTP server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Stopping stats HTTP server")
	return s.server.Shutdown(ctx)
}

// createRouter creates and configures the HTTP router
func (s *Server) createRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/stats", s.handleStats).Methods("GET")
	router.HandleFunc("/ratelimit", s.handleRateLimit).Methods("GET")
	router.HandleFunc("/recommendations", s.handleRecommendations).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// handleStats returns derived cache metrics
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeResponse(w, s.client.CacheStats())
}

// handleRateLimit returns the monitor's current snapshot
func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	snapshot := s.client.RateLimitSnapshot()
	if snapshot == nil {
		s.writeResponse(w, map[string]interface{}{"categories": nil})
		return
	}
	s.writeResponse(w, snapshot)
}

// handleRecommendations returns advisory usage recommendations
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs := s.client.Recommendations()
	if recs == nil {
		recs = []string{}
	}
	s.writeResponse(w, map[string]interface{}{"recommendations": recs})
}

// writeResponse writes JSON response
func (s *Server) writeResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
