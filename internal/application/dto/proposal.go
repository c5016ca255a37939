package dto

import (
	"time"

	"github.com/google/uuid"

	proposalapp "policy-proposal-service/internal/application/proposal"
	"policy-proposal-service/internal/domain/proposal"
)

// CoverageValue is a monetary value as it appears on the wire
type CoverageValue struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// CreateProposalRequest represents a request to create a new policy proposal
type CreateProposalRequest struct {
	CustomerID          uuid.UUID                `json:"customer_id"`
	ProductID           uuid.UUID                `json:"product_id"`
	Category            string                   `json:"category"`
	SalesChannel        string                   `json:"sales_channel"`
	PaymentMethod       string                   `json:"payment_method"`
	TotalMonthlyPremium CoverageValue            `json:"total_monthly_premium_amount"`
	InsuredAmount       CoverageValue            `json:"insured_amount"`
	Coverages           map[string]CoverageValue `json:"coverages"`
	Assistances         []string                 `json:"assistances"`
}

// ToInput validates the request and converts it into a coordinator input.
// Every field is checked here - nothing malformed reaches the domain.
func (r *CreateProposalRequest) ToInput() (*proposalapp.CreateProposalInput, error) {
	if r.CustomerID == uuid.Nil {
		return nil, proposal.ErrInvalidCustomerID
	}
	if r.ProductID == uuid.Nil {
		return nil, proposal.ErrInvalidProductID
	}

	category, err := proposal.ParseCategory(r.Category)
	if err != nil {
		return nil, err
	}
	channel, err := proposal.ParseSalesChannel(r.SalesChannel)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := proposal.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return nil, err
	}

	premium, err := proposal.NewMoneyFromString(r.TotalMonthlyPremium.Amount, r.TotalMonthlyPremium.Currency)
	if err != nil {
		return nil, err
	}
	insured, err := proposal.NewMoneyFromString(r.InsuredAmount.Amount, r.InsuredAmount.Currency)
	if err != nil {
		return nil, err
	}

	if len(r.Coverages) == 0 {
		return nil, proposal.ErrMissingCoverages
	}
	coverages := make(map[string]proposal.Money, len(r.Coverages))
	for name, value := range r.Coverages {
		m, err := proposal.NewMoneyFromString(value.Amount, value.Currency)
		if err != nil {
			return nil, err
		}
		coverages[name] = m
	}

	return &proposalapp.CreateProposalInput{
		CustomerID:          r.CustomerID,
		ProductID:           r.ProductID,
		Category:            category,
		SalesChannel:        channel,
		PaymentMethod:       paymentMethod,
		TotalMonthlyPremium: premium,
		InsuredAmount:       insured,
		Coverages:           coverages,
		Assistances:         r.Assistances,
	}, nil
}

// CancelProposalRequest carries the cancellation reason
type CancelProposalRequest struct {
	Reason string `json:"reason"`
}

// ConfirmationResponse mirrors one confirmation sub-state
type ConfirmationResponse struct {
	Status    string     `json:"status"`
	Reference string     `json:"reference,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ProposalResponse represents a proposal returned to API callers
type ProposalResponse struct {
	ID                  uuid.UUID                `json:"id"`
	CustomerID          uuid.UUID                `json:"customer_id"`
	ProductID           uuid.UUID                `json:"product_id"`
	Category            string                   `json:"category"`
	SalesChannel        string                   `json:"sales_channel"`
	PaymentMethod       string                   `json:"payment_method"`
	TotalMonthlyPremium CoverageValue            `json:"total_monthly_premium_amount"`
	InsuredAmount       CoverageValue            `json:"insured_amount"`
	Coverages           map[string]CoverageValue `json:"coverages"`
	Assistances         []string                 `json:"assistances"`
	Status              string                   `json:"status"`
	FraudClassification string                   `json:"fraud_classification,omitempty"`
	Payment             ConfirmationResponse     `json:"payment_confirmation"`
	Subscription        ConfirmationResponse     `json:"subscription_confirmation"`
	RejectionReason     string                   `json:"rejection_reason,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
	FinishedAt          *time.Time               `json:"finished_at,omitempty"`
}

// NewProposalResponse builds the API view of a proposal
func NewProposalResponse(p *proposal.PolicyProposal) *ProposalResponse {
	coverages := make(map[string]CoverageValue, len(p.Coverages))
	for name, value := range p.Coverages {
		coverages[name] = coverageValueOf(value)
	}

	resp := &ProposalResponse{
		ID:                  p.ID,
		CustomerID:          p.CustomerID,
		ProductID:           p.ProductID,
		Category:            string(p.Category),
		SalesChannel:        string(p.SalesChannel),
		PaymentMethod:       string(p.PaymentMethod),
		TotalMonthlyPremium: coverageValueOf(p.TotalMonthlyPremium),
		InsuredAmount:       coverageValueOf(p.InsuredAmount),
		Coverages:           coverages,
		Assistances:         p.Assistances,
		Status:              string(p.Status),
		Payment:             confirmationResponseOf(p.Payment),
		Subscription:        confirmationResponseOf(p.Subscription),
		RejectionReason:     p.RejectionReason,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		FinishedAt:          p.FinishedAt,
	}
	if p.FraudClassification != nil {
		resp.FraudClassification = string(*p.FraudClassification)
	}
	return resp
}

func coverageValueOf(m proposal.Money) CoverageValue {
	return CoverageValue{Amount: m.Amount.String(), Currency: m.Currency}
}

func confirmationResponseOf(c proposal.Confirmation) ConfirmationResponse {
	return ConfirmationResponse{
		Status:    string(c.Status),
		Reference: c.Reference,
		Reason:    c.Reason,
		UpdatedAt: c.UpdatedAt,
	}
}
