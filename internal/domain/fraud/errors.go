package fraud

import "errors"

var (
	// ErrUnknownClassification is returned for a classification value outside the known set
	ErrUnknownClassification = errors.New("unknown risk classification")

	// ErrEmptyLimitTable is returned when the guard is built without any configured limits
	ErrEmptyLimitTable = errors.New("risk limit table is empty")

	// ErrNegativeLimit is returned when a configured limit is negative
	ErrNegativeLimit = errors.New("risk limit cannot be negative")
)
