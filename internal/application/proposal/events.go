package proposal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"policy-proposal-service/internal/domain/fraud"
	"policy-proposal-service/internal/domain/proposal"
)

// FraudResultEvent is the inbound risk analysis result for a proposal
type FraudResultEvent struct {
	EventID        string             `json:"event_id"`
	ProposalID     uuid.UUID          `json:"proposal_id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	AnalyzedAt     time.Time          `json:"analyzed_at"`
	Classification string             `json:"classification"`
	Occurrences    []fraud.Occurrence `json:"occurrences,omitempty"`
}

// ConfirmationEvent is an inbound payment or subscription confirmation
type ConfirmationEvent struct {
	EventID    string    `json:"event_id"`
	ProposalID uuid.UUID `json:"proposal_id"`
	Outcome    string    `json:"outcome"`
	Reference  string    `json:"reference,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CancellationEvent is an inbound cancellation command delivered as a message
type CancellationEvent struct {
	EventID    string    `json:"event_id"`
	ProposalID uuid.UUID `json:"proposal_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProposalSnapshot is the full proposal view carried on outbound events so
// downstream consumers (risk analysis, billing, fulfillment) never have to
// call back for state
type ProposalSnapshot struct {
	ID                  uuid.UUID                  `json:"id"`
	CustomerID          uuid.UUID                  `json:"customer_id"`
	ProductID           uuid.UUID                  `json:"product_id"`
	Category            proposal.Category          `json:"category"`
	SalesChannel        proposal.SalesChannel      `json:"sales_channel"`
	PaymentMethod       proposal.PaymentMethodType `json:"payment_method"`
	TotalMonthlyPremium proposal.Money             `json:"total_monthly_premium_amount"`
	InsuredAmount       proposal.Money             `json:"insured_amount"`
	Coverages           map[string]proposal.Money  `json:"coverages"`
	Assistances         []string                   `json:"assistances"`
	Status              proposal.PolicyStatus      `json:"status"`
	FraudClassification *fraud.Classification      `json:"fraud_classification,omitempty"`
	Payment             proposal.Confirmation      `json:"payment_confirmation"`
	Subscription        proposal.Confirmation      `json:"subscription_confirmation"`
	RejectionReason     string                     `json:"rejection_reason,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
	FinishedAt          *time.Time                 `json:"finished_at,omitempty"`
}

func snapshotOf(p *proposal.PolicyProposal) ProposalSnapshot {
	return ProposalSnapshot{
		ID:                  p.ID,
		CustomerID:          p.CustomerID,
		ProductID:           p.ProductID,
		Category:            p.Category,
		SalesChannel:        p.SalesChannel,
		PaymentMethod:       p.PaymentMethod,
		TotalMonthlyPremium: p.TotalMonthlyPremium,
		InsuredAmount:       p.InsuredAmount,
		Coverages:           p.Coverages,
		Assistances:         p.Assistances,
		Status:              p.Status,
		FraudClassification: p.FraudClassification,
		Payment:             p.Payment,
		Subscription:        p.Subscription,
		RejectionReason:     p.RejectionReason,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		FinishedAt:          p.FinishedAt,
	}
}

// RiskCheckRequestedEvent is emitted once per proposal at creation, asking
// the external fraud analysis service for a classification
type RiskCheckRequestedEvent struct {
	EventID     string           `json:"event_id"`
	Proposal    ProposalSnapshot `json:"proposal"`
	RequestedAt time.Time        `json:"requested_at"`
}

// OutcomeEvent is emitted exactly once per proposal when it first enters a
// terminal state
type OutcomeEvent struct {
	EventID    string           `json:"event_id"`
	Proposal   ProposalSnapshot `json:"proposal"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// EventPublisher is the outbound boundary to the message transport
type EventPublisher interface {
	PublishRiskCheckRequest(ctx context.Context, ev RiskCheckRequestedEvent) error
	PublishOutcome(ctx context.Context, ev OutcomeEvent) error
}

// Ledger records processed inbound event identifiers so redeliveries from an
// at-least-once transport have at-most-once effect
type Ledger interface {
	// Seen reports whether the event id was already recorded
	Seen(ctx context.Context, eventID string) (bool, error)

	// Record marks the event id processed. Returns false if another recording
	// got there first.
	Record(ctx context.Context, eventID string) (bool, error)
}
