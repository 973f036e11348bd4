package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
	"github.com/wricardo/mcp-training/rockpaperscissors/game/session"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/websocket"
)

// Server routes HTTP requests to the game socket and the diagnostics API.
type Server struct {
	ws     *websocket.Server
	router *mux.Router
	log    *zap.Logger
}

// NewServer creates a new API server
func NewServer(ws *websocket.Server, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		ws:     ws,
		router: mux.NewRouter(),
		log:    logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Diagnostics
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)
	api.HandleFunc("", s.handleIndex).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/rules", s.handleRules).Methods("GET")

	// WebSocket. Browser clients connect to the bare host, so upgrade
	// requests on "/" are routed to the game as well.
	s.router.Handle("/", s.ws).HeadersRegexp("Upgrade", "(?i)^websocket$")
	s.router.Handle("/ws", s.ws)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Diagnostics Handlers

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":      "rock-paper-scissors",
		"websocket": []string{"/", "/ws"},
		"greeting":  websocket.Greeting,
		"request":   map[string]string{"Payload": string(engine.Rock)},
		"endpoints": []string{"/api/health", "/api/stats", "/api/rules"},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ws.Stats().Snapshot())
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"choices": engine.Choices,
		"rules":   engine.Rules(),
		"scoring": map[string]interface{}{
			"win":   session.WinScore,
			"lose":  -int64(session.LoseScore),
			"draw":  0,
			"floor": 0,
		},
	})
}

// logRequests logs one line per API request. It is not applied to the
// WebSocket routes, which need the unwrapped ResponseWriter to hijack.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("api request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
