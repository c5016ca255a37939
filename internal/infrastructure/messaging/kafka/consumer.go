package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	proposalapp "policy-proposal-service/internal/application/proposal"
)

// Handler is the application boundary the consumer dispatches into
type Handler interface {
	HandleFraudResult(ctx context.Context, ev proposalapp.FraudResultEvent) error
	HandlePaymentConfirmation(ctx context.Context, ev proposalapp.ConfirmationEvent) error
	HandleSubscriptionConfirmation(ctx context.Context, ev proposalapp.ConfirmationEvent) error
	HandleCancellation(ctx context.Context, ev proposalapp.CancellationEvent) error
}

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// Consumer reads inbound proposal events from Kafka and dispatches them to
// the application layer. Offsets are committed only after the handler
// returns, so a crash mid-handling results in redelivery. Transient handler
// errors hold the offset and retry with backoff; permanent errors are
// logged and the offset committed, since retrying them can never succeed.
type Consumer struct {
	readers []*reader
	logger  *zap.Logger
}

type reader struct {
	kr       *kafka.Reader
	dispatch func(ctx context.Context, h Handler, payload []byte) error
}

// NewConsumer creates a consumer subscribed to all inbound proposal topics
func NewConsumer(cfg Config, logger *zap.Logger) *Consumer {
	return &Consumer{
		logger: logger,
		readers: []*reader{
			{kr: newReader(cfg, cfg.FraudResultTopic), dispatch: dispatchFraudResult},
			{kr: newReader(cfg, cfg.PaymentConfirmationTopic), dispatch: dispatchPaymentConfirmation},
			{kr: newReader(cfg, cfg.SubscriptionConfirmationTopic), dispatch: dispatchSubscriptionConfirmation},
			{kr: newReader(cfg, cfg.CancellationTopic), dispatch: dispatchCancellation},
		},
	}
}

func newReader(cfg Config, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func dispatchFraudResult(ctx context.Context, h Handler, payload []byte) error {
	var ev proposalapp.FraudResultEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	return h.HandleFraudResult(ctx, ev)
}

func dispatchPaymentConfirmation(ctx context.Context, h Handler, payload []byte) error {
	var ev proposalapp.ConfirmationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	return h.HandlePaymentConfirmation(ctx, ev)
}

func dispatchSubscriptionConfirmation(ctx context.Context, h Handler, payload []byte) error {
	var ev proposalapp.ConfirmationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	return h.HandleSubscriptionConfirmation(ctx, ev)
}

func dispatchCancellation(ctx context.Context, h Handler, payload []byte) error {
	var ev proposalapp.CancellationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	return h.HandleCancellation(ctx, ev)
}

// Run consumes all topics until the context is canceled
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range c.readers {
		r := r
		g.Go(func() error {
			return c.consume(ctx, r, handler)
		})
	}
	return g.Wait()
}

func (c *Consumer) consume(ctx context.Context, r *reader, handler Handler) error {
	for {
		msg, err := r.kr.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.handle(ctx, r, handler, msg); err != nil {
			return err
		}

		if err := r.kr.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// handle runs the dispatcher, retrying in place while the error is
// transient. It returns nil once the message may be committed.
func (c *Consumer) handle(ctx context.Context, r *reader, handler Handler, msg kafka.Message) error {
	delay := retryBaseDelay
	for {
		err := r.dispatch(ctx, handler, msg.Value)
		if err == nil {
			return nil
		}

		if !proposalapp.IsTransient(err) {
			c.logger.Error("dropping unprocessable event",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			return nil
		}

		c.logger.Warn("transient failure handling event, will retry",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if delay *= 2; delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
}

// Close closes all topic readers
func (c *Consumer) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.kr.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
