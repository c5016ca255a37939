package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"policy-proposal-service/internal/domain/fraud"
	"policy-proposal-service/internal/domain/proposal"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Risk       RiskConfig     `mapstructure:"risk"`
	Log        LogConfig      `mapstructure:"log"`
	Standalone bool           `mapstructure:"standalone"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers                       []string `mapstructure:"brokers"`
	RiskCheckTopic                string   `mapstructure:"risk_check_topic"`
	OutcomeTopic                  string   `mapstructure:"outcome_topic"`
	FraudResultTopic              string   `mapstructure:"fraud_result_topic"`
	PaymentConfirmationTopic      string   `mapstructure:"payment_confirmation_topic"`
	SubscriptionConfirmationTopic string   `mapstructure:"subscription_confirmation_topic"`
	CancellationTopic             string   `mapstructure:"cancellation_topic"`
	ConsumerGroup                 string   `mapstructure:"consumer_group"`
}

// RiskConfig holds the risk acceptance limits and event processing settings.
// Limits are keyed by insurance category, then by fraud classification, with
// amounts as strings for YAML compatibility.
type RiskConfig struct {
	Limits     map[string]map[string]string `mapstructure:"limits"`
	LedgerTTL  time.Duration                `mapstructure:"ledger_ttl"`
	MaxRetries int                          `mapstructure:"max_retries"`
}

// LimitTable converts the configured limits into the domain limit table
func (c *RiskConfig) LimitTable() (fraud.LimitTable, error) {
	table := make(fraud.LimitTable, len(c.Limits))
	for category, row := range c.Limits {
		if _, err := proposal.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("unknown category %q in risk limits", category)
		}
		limits := make(map[fraud.Classification]decimal.Decimal, len(row))
		for classification, amount := range row {
			parsed, err := fraud.ParseClassification(classification)
			if err != nil {
				return nil, fmt.Errorf("risk limits for %s: %w", category, err)
			}
			limit, err := decimal.NewFromString(amount)
			if err != nil {
				return nil, fmt.Errorf("risk limit %s/%s: invalid amount %q", category, classification, amount)
			}
			limits[parsed] = limit
		}
		table[category] = limits
	}
	return table, nil
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "proposal_user",
			Password:        "",
			Name:            "policy_proposals",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:                       []string{"localhost:9092"},
			RiskCheckTopic:                "proposal-risk-checks",
			OutcomeTopic:                  "proposal-outcomes",
			FraudResultTopic:              "fraud-analysis-results",
			PaymentConfirmationTopic:      "payment-confirmations",
			SubscriptionConfirmationTopic: "subscription-authorizations",
			CancellationTopic:             "proposal-cancellations",
			ConsumerGroup:                 "policy-proposal-service",
		},
		Risk: RiskConfig{
			Limits: map[string]map[string]string{
				"LIFE": {
					"PREFERRED":      "800000",
					"REGULAR":        "500000",
					"HIGH_RISK":      "125000",
					"NO_INFORMATION": "200000",
				},
				"AUTO": {
					"PREFERRED":      "450000",
					"REGULAR":        "350000",
					"HIGH_RISK":      "250000",
					"NO_INFORMATION": "75000",
				},
				"RESIDENTIAL": {
					"PREFERRED":      "450000",
					"REGULAR":        "500000",
					"HIGH_RISK":      "150000",
					"NO_INFORMATION": "200000",
				},
				"OTHER": {
					"PREFERRED":      "375000",
					"REGULAR":        "255000",
					"HIGH_RISK":      "125000",
					"NO_INFORMATION": "55000",
				},
			},
			LedgerTTL:  7 * 24 * time.Hour,
			MaxRetries: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Standalone: false,
	}
}
