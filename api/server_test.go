package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
	"github.com/wricardo/mcp-training/rockpaperscissors/transport/websocket"
)

func newTestAPI(t *testing.T) (*websocket.Server, *Server) {
	t.Helper()
	ws := websocket.NewServer(websocket.WithChoiceSource(func() engine.ChoiceSource {
		return engine.NewSequenceSource(engine.Scissors)
	}))
	return ws, NewServer(ws, nil)
}

func TestHealth(t *testing.T) {
	_, server := newTestAPI(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body["ok"] {
		t.Errorf("Expected ok=true, got %v", body)
	}
}

func TestIndex(t *testing.T) {
	_, server := newTestAPI(t)

	req := httptest.NewRequest("GET", "/api", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["greeting"] != websocket.Greeting {
		t.Errorf("greeting = %v, want %q", body["greeting"], websocket.Greeting)
	}
}

func TestRules(t *testing.T) {
	_, server := newTestAPI(t)

	req := httptest.NewRequest("GET", "/api/rules", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Choices []engine.Choice `json:"choices"`
		Rules   []engine.Rule   `json:"rules"`
		Scoring map[string]int  `json:"scoring"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if diff := cmp.Diff(engine.Rules(), body.Rules); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
	wantScoring := map[string]int{"win": 3, "lose": -1, "draw": 0, "floor": 0}
	if diff := cmp.Diff(wantScoring, body.Scoring); diff != "" {
		t.Errorf("scoring mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, server := newTestAPI(t)

	req := httptest.NewRequest("POST", "/api/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestRootWithoutUpgradeIsNotFound(t *testing.T) {
	_, server := newTestAPI(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestWebSocketRoutesAndStats(t *testing.T) {
	ws, server := newTestAPI(t)
	srv := httptest.NewServer(server)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	for _, path := range []string{"/", "/ws"} {
		t.Run(path, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			client, err := websocket.Dial(ctx, base+path)
			if err != nil {
				t.Fatalf("Dial(%s) error = %v", path, err)
			}
			defer client.Close()

			result, err := client.Play(engine.Rock)
			if err != nil {
				t.Fatalf("Play() error = %v", err)
			}
			if result.TurnResult != engine.Win || result.Game.Score != 3 {
				t.Errorf("Play() = %+v, want Win with score 3", result)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats error = %v", err)
	}
	defer resp.Body.Close()

	var stats websocket.StatsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.TotalConnections != 2 || stats.TurnsPlayed != 2 {
		t.Errorf("stats = %+v, want 2 connections and 2 turns", stats)
	}
	if got := ws.Stats().Snapshot().TurnsPlayed; got != 2 {
		t.Errorf("server TurnsPlayed = %d, want 2", got)
	}
}
