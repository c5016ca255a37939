package fraud

import (
	"time"

	"github.com/google/uuid"
)

// Classification is the risk tier returned by the external fraud analysis
// service. The core only compares it against the configured limit table -
// how the tier was computed is the analysis service's business.
type Classification string

const (
	ClassificationPreferred     Classification = "PREFERRED"
	ClassificationRegular       Classification = "REGULAR"
	ClassificationNoInformation Classification = "NO_INFORMATION"
	ClassificationHighRisk      Classification = "HIGH_RISK"
)

// ParseClassification validates a raw classification value
func ParseClassification(raw string) (Classification, error) {
	switch Classification(raw) {
	case ClassificationPreferred, ClassificationRegular, ClassificationNoInformation, ClassificationHighRisk:
		return Classification(raw), nil
	default:
		return "", ErrUnknownClassification
	}
}

// Occurrence is a prior fraud record reported by the analysis service.
// Carried through for audit - the guard does not interpret occurrences.
type Occurrence struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AnalysisResult is the risk evaluation returned for a proposal
type AnalysisResult struct {
	ProposalID     uuid.UUID      `json:"proposal_id"`
	CustomerID     uuid.UUID      `json:"customer_id"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
	Classification Classification `json:"classification"`
	Occurrences    []Occurrence   `json:"occurrences,omitempty"`
}
