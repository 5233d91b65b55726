// Package monitor exposes the HTTP interface for observing a running
// tracking engine: health checks, current track state, lifecycle
// metrics, and a debug chart of metric history.
package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/frametrack/internal/httputil"
	"github.com/banshee-data/frametrack/internal/track"
	"github.com/banshee-data/frametrack/internal/version"
)

// metricsHistorySize bounds the in-memory ring of metric samples the
// chart endpoint renders from.
const metricsHistorySize = 512

// sample is one observed metrics snapshot with its capture time.
type sample struct {
	At      time.Time     `json:"at"`
	Metrics track.Metrics `json:"metrics"`
}

// WebServer handles the HTTP interface for monitoring the tracking
// engine. It reads live state from the track store and keeps a short
// history of metric samples for charting.
type WebServer struct {
	address string
	store   *track.Store
	server  *http.Server

	mu      sync.Mutex
	history []sample
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Store   *track.Store
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		store:   config.Store,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Observe captures the store's current metrics into the chart history.
// Call it once per processed batch.
func (ws *WebServer) Observe() {
	if ws.store == nil {
		return
	}
	m := ws.store.Metrics()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.history = append(ws.history, sample{At: time.Now(), Metrics: m})
	if len(ws.history) > metricsHistorySize {
		ws.history = ws.history[len(ws.history)-metricsHistorySize:]
	}
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/tracker/stats", ws.handleStats)
	mux.HandleFunc("/api/tracker/tracks", ws.handleTracks)
	mux.HandleFunc("/charts/tracker", ws.handleTrackerChart)

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleStats returns the store's current lifecycle metrics.
func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "track store not configured")
		return
	}

	httputil.WriteJSONOK(w, ws.store.Metrics())
}

// handleTracks returns the currently active tracks as output boxes.
func (ws *WebServer) handleTracks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "track store not configured")
		return
	}

	boxes := ws.store.Snapshot()
	httputil.WriteJSONOK(w, map[string]any{
		"count":  len(boxes),
		"tracks": boxes,
	})
}
