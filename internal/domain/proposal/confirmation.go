package proposal

import "time"

// ConfirmationStatus represents the state of one external confirmation
type ConfirmationStatus string

const (
	ConfirmationPending  ConfirmationStatus = "PENDING"
	ConfirmationApproved ConfirmationStatus = "APPROVED"
	ConfirmationRejected ConfirmationStatus = "REJECTED"
)

// ParseConfirmationStatus validates a raw confirmation outcome
// Only APPROVED and REJECTED are valid inbound outcomes - PENDING is the
// initial state and never arrives on the wire
func ParseConfirmationStatus(raw string) (ConfirmationStatus, error) {
	switch ConfirmationStatus(raw) {
	case ConfirmationApproved, ConfirmationRejected:
		return ConfirmationStatus(raw), nil
	default:
		return "", ErrInvalidConfirmationOutcome
	}
}

// Confirmation tracks one of the two independent external confirmations
// (payment or subscription) feeding into the combined approval decision
type Confirmation struct {
	Status    ConfirmationStatus `json:"status"`
	Reference string             `json:"reference,omitempty"`
	Reason    string             `json:"reason,omitempty"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

// NewConfirmation returns a confirmation in its initial PENDING state
func NewConfirmation() Confirmation {
	return Confirmation{Status: ConfirmationPending}
}

// IsPending reports whether no outcome has been recorded yet
func (c *Confirmation) IsPending() bool {
	return c.Status == ConfirmationPending
}

// apply transitions the confirmation away from PENDING at most once.
// A repeated identical outcome is a no-op. A contradicting outcome is a
// consistency violation that must be surfaced, never silently applied.
func (c *Confirmation) apply(outcome ConfirmationStatus, reference, reason string, at time.Time) (bool, error) {
	if outcome != ConfirmationApproved && outcome != ConfirmationRejected {
		return false, ErrInvalidConfirmationOutcome
	}
	if c.Status == outcome {
		return false, nil
	}
	if c.Status != ConfirmationPending {
		return false, ErrConfirmationConflict
	}

	c.Status = outcome
	c.Reference = reference
	c.Reason = reason
	c.UpdatedAt = &at
	return true, nil
}
