package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	proposalapp "policy-proposal-service/internal/application/proposal"
	"policy-proposal-service/internal/domain/fraud"
	"policy-proposal-service/internal/domain/proposal"
	"policy-proposal-service/internal/infrastructure/cache/redis"
	"policy-proposal-service/internal/infrastructure/database/postgres"
	"policy-proposal-service/internal/infrastructure/http/router"
	"policy-proposal-service/internal/infrastructure/messaging/kafka"
	"policy-proposal-service/internal/interfaces/http/handler"
	"policy-proposal-service/internal/pkg/config"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	standalone := flag.Bool("standalone", false, "Run with in-memory storage and no external brokers")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if *standalone {
		cfg.Standalone = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting policy proposal service",
		zap.String("version", version),
		zap.Bool("standalone", cfg.Standalone))

	limits, err := cfg.Risk.LimitTable()
	if err != nil {
		logger.Fatal("invalid risk limits", zap.Error(err))
	}
	guard, err := fraud.NewGuard(limits)
	if err != nil {
		logger.Fatal("could not build risk guard", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics := proposalapp.NewMetrics(registry)

	healthHandler := handler.NewHealthHandler(version)

	var (
		repo      proposal.Repository
		ledger    proposalapp.Ledger
		publisher proposalapp.EventPublisher
		consumer  *kafka.Consumer
	)

	if cfg.Standalone {
		logger.Warn("standalone mode: state is in memory and outbound events are only logged")
		repo = NewMemoryProposalRepository()
		ledger = NewMemoryEventLedger()
		publisher = &LogPublisher{logger: logger}
	} else {
		dbClient, err := postgres.NewClient(postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Name,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			logger.Fatal("could not connect to PostgreSQL", zap.Error(err))
		}
		defer dbClient.Close()
		if err := dbClient.Migrate(); err != nil {
			logger.Fatal("could not run migrations", zap.Error(err))
		}
		logger.Info("connected to PostgreSQL",
			zap.String("host", cfg.Database.Host), zap.Int("port", cfg.Database.Port))
		repo = postgres.NewProposalRepository(dbClient)
		healthHandler.Register("database", dbClient)

		redisClient, err := redis.NewClient(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Fatal("could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("connected to Redis",
			zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
		ledger = redis.NewEventLedger(redisClient, cfg.Risk.LedgerTTL)
		healthHandler.Register("redis", redisClient)

		kafkaCfg := kafka.Config{
			Brokers:                       cfg.Kafka.Brokers,
			RiskCheckTopic:                cfg.Kafka.RiskCheckTopic,
			OutcomeTopic:                  cfg.Kafka.OutcomeTopic,
			FraudResultTopic:              cfg.Kafka.FraudResultTopic,
			PaymentConfirmationTopic:      cfg.Kafka.PaymentConfirmationTopic,
			SubscriptionConfirmationTopic: cfg.Kafka.SubscriptionConfirmationTopic,
			CancellationTopic:             cfg.Kafka.CancellationTopic,
			ConsumerGroup:                 cfg.Kafka.ConsumerGroup,
		}
		kafkaPublisher := kafka.NewPublisher(kafkaCfg)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		consumer = kafka.NewConsumer(kafkaCfg, logger)
		defer consumer.Close()
	}

	coordinator := proposalapp.NewCoordinator(repo, ledger, publisher, guard, logger, metrics)
	coordinator.SetMaxRetries(cfg.Risk.MaxRetries)

	proposalHandler := handler.NewProposalHandler(coordinator)
	r := router.NewRouter(proposalHandler, healthHandler, handler.MetricsHandler(registry))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if consumer != nil {
		g.Go(func() error {
			logger.Info("event consumer started", zap.Strings("brokers", cfg.Kafka.Brokers))
			return consumer.Run(ctx, coordinator)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("service exited with error", zap.Error(err))
	}
	logger.Info("service stopped")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// In-memory adapters for standalone mode (when no external services are available)

// MemoryProposalRepository implements proposal.Repository in process memory.
// Update keeps the same compare-and-swap semantics as the PostgreSQL
// repository so the coordinator's retry path behaves identically.
type MemoryProposalRepository struct {
	mu        sync.RWMutex
	proposals map[uuid.UUID]proposal.PolicyProposal
}

func NewMemoryProposalRepository() *MemoryProposalRepository {
	return &MemoryProposalRepository{
		proposals: make(map[uuid.UUID]proposal.PolicyProposal),
	}
}

func (r *MemoryProposalRepository) Create(ctx context.Context, p *proposal.PolicyProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version = 1
	r.proposals[p.ID] = *p
	return nil
}

func (r *MemoryProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*proposal.PolicyProposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.proposals[id]
	if !ok {
		return nil, proposal.ErrProposalNotFound
	}
	return &stored, nil
}

func (r *MemoryProposalRepository) ListByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*proposal.PolicyProposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []*proposal.PolicyProposal
	for _, stored := range r.proposals {
		if stored.CustomerID == customerID {
			p := stored
			matches = append(matches, &p)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if offset >= len(matches) {
		return nil, nil
	}
	matches = matches[offset:]
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MemoryProposalRepository) Update(ctx context.Context, p *proposal.PolicyProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.proposals[p.ID]
	if !ok {
		return proposal.ErrProposalNotFound
	}
	if stored.Version != p.Version {
		return proposal.ErrVersionConflict
	}
	p.Version++
	r.proposals[p.ID] = *p
	return nil
}

// MemoryEventLedger implements the idempotency ledger in process memory
type MemoryEventLedger struct {
	mu        sync.Mutex
	processed map[string]struct{}
}

func NewMemoryEventLedger() *MemoryEventLedger {
	return &MemoryEventLedger{processed: make(map[string]struct{})}
}

func (l *MemoryEventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.processed[eventID]
	return ok, nil
}

func (l *MemoryEventLedger) Record(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.processed[eventID]; ok {
		return false, nil
	}
	l.processed[eventID] = struct{}{}
	return true, nil
}

// LogPublisher writes outbound events to the log instead of a broker
type LogPublisher struct {
	logger *zap.Logger
}

func (p *LogPublisher) PublishRiskCheckRequest(ctx context.Context, ev proposalapp.RiskCheckRequestedEvent) error {
	p.logger.Info("risk check requested",
		zap.String("event_id", ev.EventID),
		zap.String("proposal_id", ev.Proposal.ID.String()))
	return nil
}

func (p *LogPublisher) PublishOutcome(ctx context.Context, ev proposalapp.OutcomeEvent) error {
	p.logger.Info("proposal outcome",
		zap.String("event_id", ev.EventID),
		zap.String("proposal_id", ev.Proposal.ID.String()),
		zap.String("status", string(ev.Proposal.Status)))
	return nil
}
