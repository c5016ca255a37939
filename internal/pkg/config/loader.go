package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	// Set defaults from DefaultConfig
	setDefaults(v, cfg)

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found is ok - we use defaults and env vars
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("PROPOSAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration primarily from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()

	// Override with environment variables
	if host := os.Getenv("PROPOSAL_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("PROPOSAL_SERVER_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &cfg.Server.Port)
	}

	// Database
	if host := os.Getenv("PROPOSAL_DATABASE_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("PROPOSAL_DATABASE_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &cfg.Database.Port)
	}
	if user := os.Getenv("PROPOSAL_DATABASE_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("PROPOSAL_DATABASE_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("PROPOSAL_DATABASE_NAME"); name != "" {
		cfg.Database.Name = name
	}

	// Redis
	if host := os.Getenv("PROPOSAL_REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if port := os.Getenv("PROPOSAL_REDIS_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &cfg.Redis.Port)
	}
	if pass := os.Getenv("PROPOSAL_REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	// Kafka
	if brokers := os.Getenv("PROPOSAL_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	// Server defaults
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	// Database defaults
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.ssl_mode", cfg.Database.SSLMode)

	// Redis defaults
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)

	// Kafka defaults
	v.SetDefault("kafka.brokers", cfg.Kafka.Brokers)
	v.SetDefault("kafka.risk_check_topic", cfg.Kafka.RiskCheckTopic)
	v.SetDefault("kafka.outcome_topic", cfg.Kafka.OutcomeTopic)
	v.SetDefault("kafka.fraud_result_topic", cfg.Kafka.FraudResultTopic)
	v.SetDefault("kafka.payment_confirmation_topic", cfg.Kafka.PaymentConfirmationTopic)
	v.SetDefault("kafka.subscription_confirmation_topic", cfg.Kafka.SubscriptionConfirmationTopic)
	v.SetDefault("kafka.cancellation_topic", cfg.Kafka.CancellationTopic)
	v.SetDefault("kafka.consumer_group", cfg.Kafka.ConsumerGroup)

	// Risk defaults
	v.SetDefault("risk.limits", cfg.Risk.Limits)
	v.SetDefault("risk.ledger_ttl", cfg.Risk.LedgerTTL)
	v.SetDefault("risk.max_retries", cfg.Risk.MaxRetries)

	// Log defaults
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetDefault("standalone", cfg.Standalone)
}
