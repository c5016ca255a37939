package proposal

import "errors"

var (
	// ErrRetriesExhausted is returned when the optimistic write kept losing
	// the race past the retry budget. Safe to redeliver.
	ErrRetriesExhausted = errors.New("optimistic concurrency retries exhausted")

	// ErrMissingEventID is returned for an inbound event without an identifier -
	// without one the ledger cannot deduplicate it
	ErrMissingEventID = errors.New("inbound event has no event id")
)

// TransientError marks a failure caused by an unavailable collaborator or a
// lost optimistic race. The inbound event was not recorded in the ledger, so
// the transport may safely redeliver it - the next attempt either completes
// the effect or finds it already applied.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func transient(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether the error is safe to retry via redelivery
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
