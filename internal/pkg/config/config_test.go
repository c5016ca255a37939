package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-proposal-service/internal/domain/fraud"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestDefaultLimitTable(t *testing.T) {
	cfg := DefaultConfig()

	table, err := cfg.Risk.LimitTable()
	require.NoError(t, err)

	require.Contains(t, table, fraud.FallbackCategory)
	for _, category := range []string{"LIFE", "AUTO", "RESIDENTIAL", "OTHER"} {
		row, ok := table[category]
		require.True(t, ok, "missing default limits for %s", category)
		assert.Len(t, row, 4, "every classification should have a limit for %s", category)
	}

	assert.True(t, table["AUTO"][fraud.ClassificationRegular].Equal(decimal.NewFromInt(350000)))
	assert.True(t, table["LIFE"][fraud.ClassificationPreferred].Equal(decimal.NewFromInt(800000)))
	assert.True(t, table["OTHER"][fraud.ClassificationNoInformation].Equal(decimal.NewFromInt(55000)))
}

func TestLimitTableRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		limits map[string]map[string]string
	}{
		{
			name:   "unknown category",
			limits: map[string]map[string]string{"BOAT": {"REGULAR": "100"}},
		},
		{
			name:   "unknown classification",
			limits: map[string]map[string]string{"AUTO": {"MEDIUM": "100"}},
		},
		{
			name:   "amount not a number",
			limits: map[string]map[string]string{"AUTO": {"REGULAR": "lots"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := RiskConfig{Limits: tc.limits}
			_, err := cfg.LimitTable()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("rejects invalid server port", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty risk limits", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Risk.Limits = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative limit", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Risk.Limits["AUTO"]["REGULAR"] = "-1"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero retries", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Risk.MaxRetries = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero ledger ttl", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Risk.LedgerTTL = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires brokers unless standalone", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Kafka.Brokers = nil
		assert.Error(t, cfg.Validate())

		cfg.Standalone = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROPOSAL_SERVER_PORT", "9090")
	t.Setenv("PROPOSAL_DATABASE_HOST", "db.internal")
	t.Setenv("PROPOSAL_REDIS_HOST", "cache.internal")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)

	// Untouched sections keep their defaults
	assert.Equal(t, "policy_proposals", cfg.Database.Name)
	assert.Equal(t, 7*24*time.Hour, cfg.Risk.LedgerTTL)
}
