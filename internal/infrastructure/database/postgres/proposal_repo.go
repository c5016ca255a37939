package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"policy-proposal-service/internal/domain/fraud"
	"policy-proposal-service/internal/domain/proposal"
)

// ProposalModel is the database model for policy proposals
type ProposalModel struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID               uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID                uuid.UUID       `gorm:"type:uuid;not null"`
	Category                 string          `gorm:"type:varchar(20);not null"`
	SalesChannel             string          `gorm:"type:varchar(20);not null"`
	PaymentMethod            string          `gorm:"type:varchar(20);not null"`
	MonthlyPremiumAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	MonthlyPremiumCurrency   string          `gorm:"type:varchar(3);not null"`
	InsuredAmount            decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	InsuredCurrency          string          `gorm:"type:varchar(3);not null"`
	Coverages                string          `gorm:"type:jsonb;not null"`
	Assistances              string          `gorm:"type:jsonb"`
	Status                   string          `gorm:"type:varchar(20);index;not null"`
	FraudClassification      *string         `gorm:"type:varchar(20)"`
	PaymentConfirmation      string          `gorm:"type:jsonb;not null"`
	SubscriptionConfirmation string          `gorm:"type:jsonb;not null"`
	RejectionReason          string          `gorm:"type:text"`
	OutcomeEmitted           bool            `gorm:"not null"`
	Version                  int64           `gorm:"not null"`
	CreatedAt                time.Time       `gorm:"not null"`
	UpdatedAt                time.Time       `gorm:"not null"`
	FinishedAt               *time.Time
}

// TableName returns the table name for policy proposals
func (ProposalModel) TableName() string {
	return "policy_proposals"
}

// ProposalRepository implements proposal.Repository on PostgreSQL
type ProposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(client *Client) *ProposalRepository {
	return &ProposalRepository{db: client.DB()}
}

// Create stores a new proposal with version 1
func (r *ProposalRepository) Create(ctx context.Context, p *proposal.PolicyProposal) error {
	p.Version = 1
	model, err := toModel(p)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

// GetByID retrieves a proposal by its ID
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*proposal.PolicyProposal, error) {
	var model ProposalModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, proposal.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to load proposal: %w", err)
	}
	return toDomain(&model)
}

// ListByCustomerID retrieves proposals for a customer, newest first
func (r *ProposalRepository) ListByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*proposal.PolicyProposal, error) {
	var models []ProposalModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	proposals := make([]*proposal.PolicyProposal, 0, len(models))
	for i := range models {
		p, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

// Update writes the proposal conditioned on the version it was read at.
// A concurrent commit makes the WHERE clause match nothing, which surfaces
// as ErrVersionConflict - the caller re-reads and retries.
func (r *ProposalRepository) Update(ctx context.Context, p *proposal.PolicyProposal) error {
	model, err := toModel(p)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&ProposalModel{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"status":                    model.Status,
			"fraud_classification":      model.FraudClassification,
			"payment_confirmation":      model.PaymentConfirmation,
			"subscription_confirmation": model.SubscriptionConfirmation,
			"rejection_reason":          model.RejectionReason,
			"outcome_emitted":           model.OutcomeEmitted,
			"updated_at":                model.UpdatedAt,
			"finished_at":               model.FinishedAt,
			"version":                   p.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update proposal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return proposal.ErrVersionConflict
	}

	p.Version++
	return nil
}

func toModel(p *proposal.PolicyProposal) (*ProposalModel, error) {
	coverages, err := json.Marshal(p.Coverages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode coverages: %w", err)
	}
	assistances, err := json.Marshal(p.Assistances)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assistances: %w", err)
	}
	payment, err := json.Marshal(p.Payment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment confirmation: %w", err)
	}
	subscription, err := json.Marshal(p.Subscription)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subscription confirmation: %w", err)
	}

	var classification *string
	if p.FraudClassification != nil {
		value := string(*p.FraudClassification)
		classification = &value
	}

	return &ProposalModel{
		ID:                       p.ID,
		CustomerID:               p.CustomerID,
		ProductID:                p.ProductID,
		Category:                 string(p.Category),
		SalesChannel:             string(p.SalesChannel),
		PaymentMethod:            string(p.PaymentMethod),
		MonthlyPremiumAmount:     p.TotalMonthlyPremium.Amount,
		MonthlyPremiumCurrency:   p.TotalMonthlyPremium.Currency,
		InsuredAmount:            p.InsuredAmount.Amount,
		InsuredCurrency:          p.InsuredAmount.Currency,
		Coverages:                string(coverages),
		Assistances:              string(assistances),
		Status:                   string(p.Status),
		FraudClassification:      classification,
		PaymentConfirmation:      string(payment),
		SubscriptionConfirmation: string(subscription),
		RejectionReason:          p.RejectionReason,
		OutcomeEmitted:           p.OutcomeEmitted,
		Version:                  p.Version,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
		FinishedAt:               p.FinishedAt,
	}, nil
}

func toDomain(m *ProposalModel) (*proposal.PolicyProposal, error) {
	var coverages map[string]proposal.Money
	if err := json.Unmarshal([]byte(m.Coverages), &coverages); err != nil {
		return nil, fmt.Errorf("failed to decode coverages: %w", err)
	}
	var assistances []string
	if m.Assistances != "" {
		if err := json.Unmarshal([]byte(m.Assistances), &assistances); err != nil {
			return nil, fmt.Errorf("failed to decode assistances: %w", err)
		}
	}
	var payment, subscription proposal.Confirmation
	if err := json.Unmarshal([]byte(m.PaymentConfirmation), &payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment confirmation: %w", err)
	}
	if err := json.Unmarshal([]byte(m.SubscriptionConfirmation), &subscription); err != nil {
		return nil, fmt.Errorf("failed to decode subscription confirmation: %w", err)
	}

	var classification *fraud.Classification
	if m.FraudClassification != nil {
		value := fraud.Classification(*m.FraudClassification)
		classification = &value
	}

	return &proposal.PolicyProposal{
		ID:                  m.ID,
		CustomerID:          m.CustomerID,
		ProductID:           m.ProductID,
		Category:            proposal.Category(m.Category),
		SalesChannel:        proposal.SalesChannel(m.SalesChannel),
		PaymentMethod:       proposal.PaymentMethodType(m.PaymentMethod),
		TotalMonthlyPremium: proposal.Money{Amount: m.MonthlyPremiumAmount, Currency: m.MonthlyPremiumCurrency},
		InsuredAmount:       proposal.Money{Amount: m.InsuredAmount, Currency: m.InsuredCurrency},
		Coverages:           coverages,
		Assistances:         assistances,
		Status:              proposal.PolicyStatus(m.Status),
		FraudClassification: classification,
		Payment:             payment,
		Subscription:        subscription,
		RejectionReason:     m.RejectionReason,
		OutcomeEmitted:      m.OutcomeEmitted,
		Version:             m.Version,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		FinishedAt:          m.FinishedAt,
	}, nil
}
