package proposal

import (
	"errors"
	"fmt"
)

var (
	// ErrProposalNotFound is returned when a proposal cannot be found
	ErrProposalNotFound = errors.New("policy proposal not found")

	// ErrInvalidAmount is returned when a monetary amount is negative or malformed
	ErrInvalidAmount = errors.New("invalid monetary amount")

	// ErrMissingCurrency is returned when a monetary amount has no currency
	ErrMissingCurrency = errors.New("currency is required")

	// ErrInvalidCustomerID is returned when the customer ID is missing
	ErrInvalidCustomerID = errors.New("invalid customer ID")

	// ErrInvalidProductID is returned when the product ID is missing
	ErrInvalidProductID = errors.New("invalid product ID")

	// ErrUnknownCategory is returned for a product category outside the known set
	ErrUnknownCategory = errors.New("unknown product category")

	// ErrUnknownSalesChannel is returned for an unrecognized sales channel
	ErrUnknownSalesChannel = errors.New("unknown sales channel")

	// ErrUnknownPaymentMethod is returned for an unrecognized payment method
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrMissingCoverages is returned when a proposal has no coverages
	ErrMissingCoverages = errors.New("at least one coverage is required")

	// ErrInvalidStatusTransition is returned when an event requires a state
	// the proposal is not in
	ErrInvalidStatusTransition = errors.New("invalid proposal status transition")

	// ErrClassificationAlreadySet is returned when a second risk result would
	// overwrite an already applied classification
	ErrClassificationAlreadySet = errors.New("fraud classification already applied")

	// ErrInvalidConfirmationOutcome is returned for a confirmation outcome
	// outside {APPROVED, REJECTED}
	ErrInvalidConfirmationOutcome = errors.New("invalid confirmation outcome")

	// ErrConfirmationConflict is returned when a confirmation outcome
	// contradicts a previously recorded different outcome for the same
	// sub-state. The proposal is left unchanged and the event must be flagged
	// for manual review.
	ErrConfirmationConflict = errors.New("confirmation outcome conflicts with previously recorded outcome")

	// ErrVersionConflict is returned by repositories when an optimistic write
	// lost the race against a concurrent mutation
	ErrVersionConflict = errors.New("proposal version conflict")

	// ErrOutcomeNotReached is returned when the outcome-emitted marker is set
	// on a proposal that has not reached a terminal state
	ErrOutcomeNotReached = errors.New("proposal has not reached a terminal state")
)

// CancellationConflictError reports a cancel command against a proposal that
// already reached a terminal state. One error kind, three user-facing
// message variants.
type CancellationConflictError struct {
	Status PolicyStatus
}

func (e *CancellationConflictError) Error() string {
	switch e.Status {
	case StatusCanceled:
		return "proposal is already canceled"
	case StatusRejected:
		return "proposal was already rejected and cannot be canceled"
	default:
		return fmt.Sprintf("proposal in status %s cannot be canceled", e.Status)
	}
}
