package proposal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"policy-proposal-service/internal/domain/fraud"
	"policy-proposal-service/internal/domain/proposal"
)

const defaultMaxRetries = 3

// Coordinator is the single entry point for every command and event that can
// mutate a proposal. Events for the same proposal serialize through the
// aggregate's version: whoever wins the conditioned write is applied first,
// the loser re-reads and either retries or is absorbed by the terminal no-op
// rule.
type Coordinator struct {
	repo      proposal.Repository
	ledger    Ledger
	publisher EventPublisher
	guard     *fraud.Guard
	logger    *zap.Logger
	metrics   *Metrics

	maxRetries int
}

// NewCoordinator creates a coordinator with the default retry budget
func NewCoordinator(
	repo proposal.Repository,
	ledger Ledger,
	publisher EventPublisher,
	guard *fraud.Guard,
	logger *zap.Logger,
	metrics *Metrics,
) *Coordinator {
	return &Coordinator{
		repo:       repo,
		ledger:     ledger,
		publisher:  publisher,
		guard:      guard,
		logger:     logger,
		metrics:    metrics,
		maxRetries: defaultMaxRetries,
	}
}

// SetMaxRetries overrides the optimistic concurrency retry budget
func (c *Coordinator) SetMaxRetries(n int) {
	if n > 0 {
		c.maxRetries = n
	}
}

// CreateProposalInput carries the validated fields for a new proposal
type CreateProposalInput struct {
	CustomerID          uuid.UUID
	ProductID           uuid.UUID
	Category            proposal.Category
	SalesChannel        proposal.SalesChannel
	PaymentMethod       proposal.PaymentMethodType
	TotalMonthlyPremium proposal.Money
	InsuredAmount       proposal.Money
	Coverages           map[string]proposal.Money
	Assistances         []string
}

// CreateProposal creates a proposal in REQUESTED and schedules the risk
// check. Validation failures persist nothing.
func (c *Coordinator) CreateProposal(ctx context.Context, input CreateProposalInput) (*proposal.PolicyProposal, error) {
	p, err := proposal.NewPolicyProposal(
		input.CustomerID, input.ProductID,
		input.Category, input.SalesChannel, input.PaymentMethod,
		input.TotalMonthlyPremium, input.InsuredAmount,
		input.Coverages, input.Assistances,
	)
	if err != nil {
		return nil, err
	}

	if err := c.repo.Create(ctx, p); err != nil {
		return nil, transient(err)
	}

	ev := RiskCheckRequestedEvent{
		EventID:     uuid.NewString(),
		Proposal:    snapshotOf(p),
		RequestedAt: time.Now().UTC(),
	}
	if err := c.publisher.PublishRiskCheckRequest(ctx, ev); err != nil {
		// The proposal exists but no risk check was requested. Surface a
		// retryable failure; the stored proposal stays in REQUESTED.
		c.logger.Error("failed to publish risk check request",
			zap.String("proposal_id", p.ID.String()),
			zap.Error(err))
		return nil, transient(err)
	}

	c.metrics.ProposalsCreated.Inc()
	c.logger.Info("proposal created",
		zap.String("proposal_id", p.ID.String()),
		zap.String("customer_id", p.CustomerID.String()),
		zap.String("category", string(p.Category)))
	return p, nil
}

// GetProposal retrieves a proposal by ID
func (c *Coordinator) GetProposal(ctx context.Context, id uuid.UUID) (*proposal.PolicyProposal, error) {
	return c.repo.GetByID(ctx, id)
}

// ListByCustomer retrieves a customer's proposals, newest first
func (c *Coordinator) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*proposal.PolicyProposal, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return c.repo.ListByCustomerID(ctx, customerID, limit, offset)
}

// HandleFraudResult applies the external risk classification at the
// validation gate: within the configured limit the proposal moves to
// PENDING, above it the proposal is rejected outright.
func (c *Coordinator) HandleFraudResult(ctx context.Context, ev FraudResultEvent) error {
	classification, err := fraud.ParseClassification(ev.Classification)
	if err != nil {
		return err
	}

	return c.process(ctx, ev.EventID, ev.ProposalID, "fraud_result", func(p *proposal.PolicyProposal) (bool, error) {
		// A redelivered result under a fresh event id finds the
		// classification already applied - absorb it.
		if p.FraudClassification != nil && *p.FraudClassification == classification {
			return false, nil
		}

		decision := c.guard.Evaluate(classification, string(p.Category), p.InsuredAmount.Amount)
		if decision.Approved {
			return true, p.MarkPending(classification)
		}
		c.logger.Info("proposal failed risk validation",
			zap.String("proposal_id", p.ID.String()),
			zap.String("classification", string(classification)),
			zap.String("reason", decision.Reason))
		return true, p.RejectFromRiskAnalysis(classification, decision.Reason)
	})
}

// HandlePaymentConfirmation applies a payment outcome
func (c *Coordinator) HandlePaymentConfirmation(ctx context.Context, ev ConfirmationEvent) error {
	outcome, err := proposal.ParseConfirmationStatus(ev.Outcome)
	if err != nil {
		return err
	}
	return c.process(ctx, ev.EventID, ev.ProposalID, "payment_confirmation", func(p *proposal.PolicyProposal) (bool, error) {
		return p.ApplyPaymentConfirmation(outcome, ev.Reference, ev.Reason)
	})
}

// HandleSubscriptionConfirmation applies a subscription outcome
func (c *Coordinator) HandleSubscriptionConfirmation(ctx context.Context, ev ConfirmationEvent) error {
	outcome, err := proposal.ParseConfirmationStatus(ev.Outcome)
	if err != nil {
		return err
	}
	return c.process(ctx, ev.EventID, ev.ProposalID, "subscription_confirmation", func(p *proposal.PolicyProposal) (bool, error) {
		return p.ApplySubscriptionConfirmation(outcome, ev.Reference, ev.Reason)
	})
}

// HandleCancellation applies a cancellation delivered as a message. A cancel
// against an already terminal proposal is absorbed as a late event, not an
// error - the synchronous Cancel is the path that reports conflicts.
func (c *Coordinator) HandleCancellation(ctx context.Context, ev CancellationEvent) error {
	return c.process(ctx, ev.EventID, ev.ProposalID, "cancellation", func(p *proposal.PolicyProposal) (bool, error) {
		return true, p.Cancel(ev.Reason)
	})
}

// Cancel handles the synchronous cancellation command. Unlike the event
// path it surfaces CancellationConflictError so the caller learns the
// current status.
func (c *Coordinator) Cancel(ctx context.Context, proposalID uuid.UUID, reason string) (*proposal.PolicyProposal, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		p, err := c.repo.GetByID(ctx, proposalID)
		if err != nil {
			if errors.Is(err, proposal.ErrProposalNotFound) {
				return nil, err
			}
			return nil, transient(err)
		}

		if err := p.Cancel(reason); err != nil {
			// The proposal is already terminal. A prior attempt may have
			// committed the terminal state and then failed the publish; the
			// conflict response must not leave that outcome unemitted.
			var conflict *proposal.CancellationConflictError
			if errors.As(err, &conflict) {
				if repairErr := c.ensureOutcomeEmitted(ctx, p); repairErr != nil {
					return nil, repairErr
				}
			}
			return nil, err
		}

		if err := c.repo.Update(ctx, p); err != nil {
			if errors.Is(err, proposal.ErrVersionConflict) {
				// A terminal-causing event may have committed between our
				// read and write. Re-read: the cancel is then correctly
				// rejected as a conflict instead of overwriting.
				c.metrics.ConflictRetries.Inc()
				continue
			}
			return nil, transient(err)
		}

		if err := c.emitOutcome(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, transient(ErrRetriesExhausted)
}

// process is the shared inbound-event pipeline: ledger check, optimistic
// read-apply-write loop, terminal absorption, outcome emission, ledger
// record. The ledger is written only after every effect committed, so a
// crash anywhere leaves the event eligible for redelivery.
func (c *Coordinator) process(
	ctx context.Context,
	eventID string,
	proposalID uuid.UUID,
	kind string,
	apply func(*proposal.PolicyProposal) (bool, error),
) error {
	if eventID == "" {
		return ErrMissingEventID
	}

	seen, err := c.ledger.Seen(ctx, eventID)
	if err != nil {
		return transient(err)
	}
	if seen {
		c.metrics.DuplicateEvents.Inc()
		c.logger.Debug("dropping already processed event",
			zap.String("event_id", eventID),
			zap.String("event_kind", kind))
		return nil
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		p, err := c.repo.GetByID(ctx, proposalID)
		if err != nil {
			if errors.Is(err, proposal.ErrProposalNotFound) {
				return err
			}
			return transient(err)
		}

		if p.IsTerminal() {
			// Late redelivery against a decided proposal. Expected under
			// at-least-once transports; record and move on. If the earlier
			// attempt crashed between commit and publish, repair that first.
			if err := c.ensureOutcomeEmitted(ctx, p); err != nil {
				return err
			}
			c.metrics.LateEvents.Inc()
			c.logger.Info("ignoring event for proposal in terminal state",
				zap.String("event_id", eventID),
				zap.String("event_kind", kind),
				zap.String("proposal_id", p.ID.String()),
				zap.String("status", string(p.Status)))
			return c.record(ctx, eventID)
		}

		changed, err := apply(p)
		if err != nil {
			if errors.Is(err, proposal.ErrConfirmationConflict) {
				c.logger.Error("confirmation outcome conflicts with recorded outcome, flagging for manual review",
					zap.String("event_id", eventID),
					zap.String("event_kind", kind),
					zap.String("proposal_id", p.ID.String()))
			}
			return err
		}
		if !changed {
			return c.record(ctx, eventID)
		}

		if err := c.repo.Update(ctx, p); err != nil {
			if errors.Is(err, proposal.ErrVersionConflict) {
				c.metrics.ConflictRetries.Inc()
				continue
			}
			return transient(err)
		}

		if p.IsTerminal() {
			if err := c.emitOutcome(ctx, p); err != nil {
				return err
			}
		}
		return c.record(ctx, eventID)
	}
	return transient(ErrRetriesExhausted)
}

// emitOutcome publishes the terminal outcome event and persists the emitted
// marker. Publish and marker are two separate writes; a crash in between is
// repaired by ensureOutcomeEmitted on the next delivery, which keeps
// duplicates within what the transport's at-least-once semantics already
// allow.
func (c *Coordinator) emitOutcome(ctx context.Context, p *proposal.PolicyProposal) error {
	ev := OutcomeEvent{
		EventID:    uuid.NewString(),
		Proposal:   snapshotOf(p),
		OccurredAt: time.Now().UTC(),
	}
	if err := c.publisher.PublishOutcome(ctx, ev); err != nil {
		return transient(err)
	}

	if err := p.MarkOutcomeEmitted(); err != nil {
		return err
	}
	if err := c.repo.Update(ctx, p); err != nil {
		if errors.Is(err, proposal.ErrVersionConflict) {
			// Another worker persisted the marker concurrently. The event is
			// out, nothing left to do.
			return nil
		}
		return transient(err)
	}

	c.metrics.Outcomes.WithLabelValues(string(p.Status)).Inc()
	c.logger.Info("proposal reached terminal state",
		zap.String("proposal_id", p.ID.String()),
		zap.String("status", string(p.Status)),
		zap.String("rejection_reason", p.RejectionReason))
	return nil
}

func (c *Coordinator) ensureOutcomeEmitted(ctx context.Context, p *proposal.PolicyProposal) error {
	if p.OutcomeEmitted {
		return nil
	}
	return c.emitOutcome(ctx, p)
}

func (c *Coordinator) record(ctx context.Context, eventID string) error {
	if _, err := c.ledger.Record(ctx, eventID); err != nil {
		return transient(err)
	}
	return nil
}
