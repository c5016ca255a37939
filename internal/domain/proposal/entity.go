package proposal

import (
	"time"

	"github.com/google/uuid"

	"policy-proposal-service/internal/domain/fraud"
)

// PolicyStatus represents the current lifecycle state of a proposal
type PolicyStatus string

const (
	// StatusRequested is the initial state, waiting for the risk analysis result
	StatusRequested PolicyStatus = "REQUESTED"
	// StatusPending means the risk gate passed and the proposal is waiting for
	// payment and subscription confirmations. No manual-review step exists
	// between validation and the confirmation wait, so a passing risk result
	// lands here directly.
	StatusPending PolicyStatus = "PENDING"
	// StatusApproved is terminal: both confirmations approved
	StatusApproved PolicyStatus = "APPROVED"
	// StatusRejected is terminal: risk gate failed or a confirmation was rejected
	StatusRejected PolicyStatus = "REJECTED"
	// StatusCanceled is terminal: canceled by explicit command
	StatusCanceled PolicyStatus = "CANCELED"
)

// IsTerminal reports whether the status permits no further transitions
func (s PolicyStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCanceled
}

// Category is the insured product category
type Category string

const (
	CategoryAuto        Category = "AUTO"
	CategoryLife        Category = "LIFE"
	CategoryResidential Category = "RESIDENTIAL"
	CategoryTravel      Category = "TRAVEL"
	CategoryOther       Category = "OTHER"
)

// ParseCategory validates a raw category value
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryAuto, CategoryLife, CategoryResidential, CategoryTravel, CategoryOther:
		return Category(raw), nil
	default:
		return "", ErrUnknownCategory
	}
}

// SalesChannel identifies where the proposal originated
type SalesChannel string

const (
	ChannelMobile   SalesChannel = "MOBILE"
	ChannelWhatsApp SalesChannel = "WHATSAPP"
	ChannelWebsite  SalesChannel = "WEBSITE"
	ChannelBranch   SalesChannel = "BRANCH"
)

// ParseSalesChannel validates a raw sales channel value
func ParseSalesChannel(raw string) (SalesChannel, error) {
	switch SalesChannel(raw) {
	case ChannelMobile, ChannelWhatsApp, ChannelWebsite, ChannelBranch:
		return SalesChannel(raw), nil
	default:
		return "", ErrUnknownSalesChannel
	}
}

// PaymentMethodType is how the customer intends to pay the premium
type PaymentMethodType string

const (
	PaymentCreditCard   PaymentMethodType = "CREDIT_CARD"
	PaymentDebitAccount PaymentMethodType = "DEBIT_ACCOUNT"
	PaymentBoleto       PaymentMethodType = "BOLETO"
	PaymentPix          PaymentMethodType = "PIX"
)

// ParsePaymentMethod validates a raw payment method value
func ParsePaymentMethod(raw string) (PaymentMethodType, error) {
	switch PaymentMethodType(raw) {
	case PaymentCreditCard, PaymentDebitAccount, PaymentBoleto, PaymentPix:
		return PaymentMethodType(raw), nil
	default:
		return "", ErrUnknownPaymentMethod
	}
}

// PolicyProposal is the aggregate root tracked by this service.
// Every mutation goes through the transition methods below - no caller
// writes fields directly, so the state machine cannot be bypassed.
type PolicyProposal struct {
	// Identity
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	ProductID  uuid.UUID `json:"product_id"`

	// Commercial details
	Category            Category          `json:"category"`
	SalesChannel        SalesChannel      `json:"sales_channel"`
	PaymentMethod       PaymentMethodType `json:"payment_method"`
	TotalMonthlyPremium Money             `json:"total_monthly_premium_amount"`
	InsuredAmount       Money             `json:"insured_amount"`
	Coverages           map[string]Money  `json:"coverages"`
	Assistances         []string          `json:"assistances"`

	// Lifecycle
	Status              PolicyStatus          `json:"status"`
	FraudClassification *fraud.Classification `json:"fraud_classification,omitempty"`
	Payment             Confirmation          `json:"payment_confirmation"`
	Subscription        Confirmation          `json:"subscription_confirmation"`
	RejectionReason     string                `json:"rejection_reason,omitempty"`

	// OutcomeEmitted records that the terminal outcome event reached the
	// publisher. It lets a redelivery re-publish after a crash between the
	// terminal commit and the publish, instead of dropping the notification.
	OutcomeEmitted bool `json:"outcome_emitted"`

	// Timestamps
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Version detects lost updates under optimistic concurrency.
	// Incremented by the repository on every committed mutation.
	Version int64 `json:"version"`
}

// NewPolicyProposal creates a proposal in its initial REQUESTED state.
// All invariants are enforced here - an entity that exists is valid.
func NewPolicyProposal(
	customerID, productID uuid.UUID,
	category Category,
	channel SalesChannel,
	paymentMethod PaymentMethodType,
	monthlyPremium, insuredAmount Money,
	coverages map[string]Money,
	assistances []string,
) (*PolicyProposal, error) {
	now := time.Now().UTC()
	p := &PolicyProposal{
		ID:                  uuid.New(),
		CustomerID:          customerID,
		ProductID:           productID,
		Category:            category,
		SalesChannel:        channel,
		PaymentMethod:       paymentMethod,
		TotalMonthlyPremium: monthlyPremium,
		InsuredAmount:       insuredAmount,
		Coverages:           coverages,
		Assistances:         assistances,
		Status:              StatusRequested,
		Payment:             NewConfirmation(),
		Subscription:        NewConfirmation(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the structural invariants of the aggregate
func (p *PolicyProposal) Validate() error {
	if p.CustomerID == uuid.Nil {
		return ErrInvalidCustomerID
	}
	if p.ProductID == uuid.Nil {
		return ErrInvalidProductID
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if _, err := ParseSalesChannel(string(p.SalesChannel)); err != nil {
		return err
	}
	if _, err := ParsePaymentMethod(string(p.PaymentMethod)); err != nil {
		return err
	}
	if p.TotalMonthlyPremium.Amount.IsNegative() || p.TotalMonthlyPremium.Currency == "" {
		return ErrInvalidAmount
	}
	if p.InsuredAmount.Amount.IsNegative() || p.InsuredAmount.Currency == "" {
		return ErrInvalidAmount
	}
	if len(p.Coverages) == 0 {
		return ErrMissingCoverages
	}
	for _, value := range p.Coverages {
		if value.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// IsTerminal reports whether the proposal reached a final state
func (p *PolicyProposal) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// MarkPending applies a passing risk result. The classification is recorded
// exactly once and the proposal moves to PENDING, waiting for both external
// confirmations.
func (p *PolicyProposal) MarkPending(classification fraud.Classification) error {
	if p.Status != StatusRequested {
		return ErrInvalidStatusTransition
	}
	if p.FraudClassification != nil {
		return ErrClassificationAlreadySet
	}
	p.FraudClassification = &classification
	p.Status = StatusPending
	p.touch()
	return nil
}

// RejectFromRiskAnalysis applies a failing risk result. The proposal goes
// terminal without ever entering PENDING.
func (p *PolicyProposal) RejectFromRiskAnalysis(classification fraud.Classification, reason string) error {
	if p.Status != StatusRequested {
		return ErrInvalidStatusTransition
	}
	if p.FraudClassification != nil {
		return ErrClassificationAlreadySet
	}
	p.FraudClassification = &classification
	p.finish(StatusRejected, reason)
	return nil
}

// ApplyPaymentConfirmation records the payment outcome and recomputes the
// combined decision. Returns whether the aggregate changed.
func (p *PolicyProposal) ApplyPaymentConfirmation(outcome ConfirmationStatus, reference, reason string) (bool, error) {
	return p.applyConfirmation(&p.Payment, outcome, reference, reason, "payment not confirmed")
}

// ApplySubscriptionConfirmation records the subscription outcome and
// recomputes the combined decision. Returns whether the aggregate changed.
func (p *PolicyProposal) ApplySubscriptionConfirmation(outcome ConfirmationStatus, reference, reason string) (bool, error) {
	return p.applyConfirmation(&p.Subscription, outcome, reference, reason, "subscription not authorized")
}

func (p *PolicyProposal) applyConfirmation(c *Confirmation, outcome ConfirmationStatus, reference, reason, defaultReason string) (bool, error) {
	if p.Status != StatusPending {
		return false, ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	changed, err := c.apply(outcome, reference, reason, now)
	if err != nil || !changed {
		return false, err
	}
	p.touch()

	// Combined decision: rejection from either side short-circuits, approval
	// requires both. Anything else stays PENDING.
	switch {
	case c.Status == ConfirmationRejected:
		rejection := reason
		if rejection == "" {
			rejection = defaultReason
		}
		p.finish(StatusRejected, rejection)
	case p.Payment.Status == ConfirmationApproved && p.Subscription.Status == ConfirmationApproved:
		p.finish(StatusApproved, "")
	}
	return true, nil
}

// Cancel forces the proposal into CANCELED. Only valid before a terminal
// state - canceling an already decided proposal is a conflict the caller
// must see, with the current status attached.
func (p *PolicyProposal) Cancel(reason string) error {
	if p.IsTerminal() {
		return &CancellationConflictError{Status: p.Status}
	}
	p.finish(StatusCanceled, reason)
	return nil
}

// MarkOutcomeEmitted records that the terminal outcome event was handed to
// the publisher
func (p *PolicyProposal) MarkOutcomeEmitted() error {
	if !p.IsTerminal() {
		return ErrOutcomeNotReached
	}
	p.OutcomeEmitted = true
	p.touch()
	return nil
}

func (p *PolicyProposal) finish(status PolicyStatus, reason string) {
	now := time.Now().UTC()
	p.Status = status
	p.RejectionReason = reason
	p.FinishedAt = &now
	p.UpdatedAt = now
}

func (p *PolicyProposal) touch() {
	p.UpdatedAt = time.Now().UTC()
}
