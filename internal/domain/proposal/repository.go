package proposal

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the contract for proposal persistence
type Repository interface {
	// Create stores a new proposal with version 1
	Create(ctx context.Context, p *PolicyProposal) error

	// GetByID retrieves a proposal by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*PolicyProposal, error)

	// ListByCustomerID retrieves proposals for a customer, newest first
	ListByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*PolicyProposal, error)

	// Update persists the proposal conditioned on the version it was read at.
	// On success the in-memory version is incremented by one. If a concurrent
	// mutation committed first, ErrVersionConflict is returned and nothing is
	// written - the caller re-reads and retries.
	Update(ctx context.Context, p *PolicyProposal) error
}
