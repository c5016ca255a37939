package handler

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Pinger is a backing service that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name   string
	pinger Pinger
}

// HealthHandler exposes liveness and readiness endpoints. Readiness checks
// every registered dependency, so in standalone mode (nothing registered)
// the service is always ready.
type HealthHandler struct {
	dependencies []dependency
	version      string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Register adds a named dependency to the readiness check
func (h *HealthHandler) Register(name string, p Pinger) {
	h.dependencies = append(h.dependencies, dependency{name: name, pinger: p})
	sort.Slice(h.dependencies, func(i, j int) bool {
		return h.dependencies[i].name < h.dependencies[j].name
	})
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string, len(h.dependencies))
	ready := true
	for _, dep := range h.dependencies {
		if err := dep.pinger.Ping(ctx); err != nil {
			services[dep.name] = "unhealthy: " + err.Error()
			ready = false
		} else {
			services[dep.name] = "healthy"
		}
	}

	response := HealthResponse{
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if ready {
		response.Status = "ready"
		writeJSON(w, http.StatusOK, response)
		return
	}
	response.Status = "not ready"
	writeJSON(w, http.StatusServiceUnavailable, response)
}

// Live handles GET /live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
