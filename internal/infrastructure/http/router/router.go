package router

import (
	"net/http"

	"policy-proposal-service/internal/interfaces/http/handler"
)

// Router holds all HTTP handlers
type Router struct {
	mux             *http.ServeMux
	proposalHandler *handler.ProposalHandler
	healthHandler   *handler.HealthHandler
	metricsHandler  http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	proposalHandler *handler.ProposalHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
) *Router {
	r := &Router{
		mux:             http.NewServeMux(),
		proposalHandler: proposalHandler,
		healthHandler:   healthHandler,
		metricsHandler:  metricsHandler,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	// Prometheus scrape endpoint
	r.mux.Handle("GET /metrics", r.metricsHandler)

	// Proposal lifecycle endpoints
	r.mux.HandleFunc("POST /api/v1/proposals", r.proposalHandler.Create)
	r.mux.HandleFunc("GET /api/v1/proposals/{id}", r.proposalHandler.Get)
	r.mux.HandleFunc("POST /api/v1/proposals/{id}/cancel", r.proposalHandler.Cancel)

	// Customer views
	r.mux.HandleFunc("GET /api/v1/customers/{customerId}/proposals", r.proposalHandler.ListByCustomer)
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
