package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if len(c.Risk.Limits) == 0 {
		return errors.New("risk limits must not be empty")
	}

	for category, row := range c.Risk.Limits {
		for classification, amount := range row {
			limit, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("risk limit %s/%s is not a valid amount: %q", category, classification, amount)
			}
			if limit.IsNegative() {
				return fmt.Errorf("risk limit %s/%s must not be negative", category, classification)
			}
		}
	}

	if c.Risk.MaxRetries < 1 {
		return errors.New("risk max_retries must be at least 1")
	}

	if c.Risk.LedgerTTL <= 0 {
		return errors.New("risk ledger_ttl must be positive")
	}

	if !c.Standalone {
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka brokers must not be empty")
		}
		if c.Database.Host == "" {
			return errors.New("database host must not be empty")
		}
		if c.Redis.Host == "" {
			return errors.New("redis host must not be empty")
		}
	}

	return nil
}
