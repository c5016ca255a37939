package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	proposalapp "policy-proposal-service/internal/application/proposal"
)

// Config holds Kafka connection and topic configuration
type Config struct {
	Brokers                       []string
	RiskCheckTopic                string
	OutcomeTopic                  string
	FraudResultTopic              string
	PaymentConfirmationTopic      string
	SubscriptionConfirmationTopic string
	CancellationTopic             string
	ConsumerGroup                 string
}

// Publisher writes outbound proposal events to Kafka. Messages are keyed by
// proposal id so every event for one proposal lands on the same partition
// and downstream consumers observe them in order.
type Publisher struct {
	riskChecks *kafka.Writer
	outcomes   *kafka.Writer
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{
		riskChecks: newWriter(cfg.Brokers, cfg.RiskCheckTopic),
		outcomes:   newWriter(cfg.Brokers, cfg.OutcomeTopic),
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
}

// PublishRiskCheckRequest emits a risk analysis request for a new proposal
func (p *Publisher) PublishRiskCheckRequest(ctx context.Context, ev proposalapp.RiskCheckRequestedEvent) error {
	return publish(ctx, p.riskChecks, ev.Proposal.ID.String(), ev)
}

// PublishOutcome emits the terminal outcome of a proposal
func (p *Publisher) PublishOutcome(ctx context.Context, ev proposalapp.OutcomeEvent) error {
	return publish(ctx, p.outcomes, ev.Proposal.ID.String(), ev)
}

func publish(ctx context.Context, w *kafka.Writer, key string, ev interface{}) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", w.Topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writers
func (p *Publisher) Close() error {
	riskErr := p.riskChecks.Close()
	outcomeErr := p.outcomes.Close()
	if riskErr != nil {
		return riskErr
	}
	return outcomeErr
}
