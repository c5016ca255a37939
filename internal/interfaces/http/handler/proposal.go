package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"policy-proposal-service/internal/application/dto"
	proposalapp "policy-proposal-service/internal/application/proposal"
	"policy-proposal-service/internal/domain/proposal"
)

// ProposalHandler handles proposal-related HTTP requests
type ProposalHandler struct {
	coordinator *proposalapp.Coordinator
}

// NewProposalHandler creates a new proposal handler
func NewProposalHandler(coordinator *proposalapp.Coordinator) *ProposalHandler {
	return &ProposalHandler{coordinator: coordinator}
}

// Create handles POST /api/v1/proposals
func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input, err := req.ToInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.coordinator.CreateProposal(r.Context(), *input)
	if err != nil {
		if proposalapp.IsTransient(err) {
			writeError(w, http.StatusServiceUnavailable, "Proposal could not be accepted, retry later")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewProposalResponse(created))
}

// Get handles GET /api/v1/proposals/{id}
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Proposal")
	if !ok {
		return
	}

	p, err := h.coordinator.GetProposal(r.Context(), id)
	if err != nil {
		if errors.Is(err, proposal.ErrProposalNotFound) {
			writeError(w, http.StatusNotFound, "Proposal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get proposal: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.NewProposalResponse(p))
}

// ListByCustomer handles GET /api/v1/customers/{customerId}/proposals
func (h *ProposalHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := parseID(w, r, "customerId", "Customer")
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	proposals, err := h.coordinator.ListByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list proposals: "+err.Error())
		return
	}

	responses := make([]*dto.ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		responses = append(responses, dto.NewProposalResponse(p))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"proposals": responses,
		"count":     len(responses),
	})
}

// Cancel handles POST /api/v1/proposals/{id}/cancel
func (h *ProposalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id", "Proposal")
	if !ok {
		return
	}

	var req dto.CancelProposalRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	canceled, err := h.coordinator.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		var conflict *proposal.CancellationConflictError
		switch {
		case errors.Is(err, proposal.ErrProposalNotFound):
			writeError(w, http.StatusNotFound, "Proposal not found")
		case errors.As(err, &conflict):
			writeError(w, http.StatusConflict, conflict.Error())
		case proposalapp.IsTransient(err):
			writeError(w, http.StatusServiceUnavailable, "Cancellation could not be applied, retry later")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to cancel proposal: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.NewProposalResponse(canceled))
}

func parseID(w http.ResponseWriter, r *http.Request, pathKey, label string) (uuid.UUID, bool) {
	idStr := r.PathValue(pathKey)
	if idStr == "" {
		writeError(w, http.StatusBadRequest, label+" ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
