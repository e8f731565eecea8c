package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, "1000", cfg.Run.InitialBalance)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.NoError(t, cfg.Validate())
}

func TestParams(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Run.TakeProfitPct = "0.02"
	cfg.Run.Start = "2025-01-01T00:00:00Z"
	cfg.Run.End = "2025-01-31 23:59:59"
	zero := int32(0)
	cfg.Run.QtyPrecision = &zero

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.True(t, p.InitialBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, p.FeeRate.Equal(decimal.RequireFromString("0.001")))
	require.NotNil(t, p.TakeProfitPct)
	assert.True(t, p.TakeProfitPct.Equal(decimal.RequireFromString("0.02")))
	assert.Nil(t, p.StopLossPct)
	assert.Equal(t, int32(0), p.QtyPrecision)
	assert.Equal(t, 2025, p.Start.Year())
	assert.Equal(t, 31, p.End.Day())
}

func TestParamsEmptyRunUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	p, err := cfg.Params()
	require.NoError(t, err)

	want := backtest.DefaultParams()
	assert.True(t, want.InitialBalance.Equal(p.InitialBalance))
	assert.Equal(t, want.QtyPrecision, p.QtyPrecision)
	assert.Equal(t, backtest.RoundHalfEven, p.Rounding)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:   "missing prices",
			mutate: func(c *Config) { c.Data.PricesFile = "" },
			errMsg: "data.prices_file is required",
		},
		{
			name:   "missing signals",
			mutate: func(c *Config) { c.Data.SignalsFile = "" },
			errMsg: "data.signals_file is required",
		},
		{
			name:   "bad journal type",
			mutate: func(c *Config) { c.Journal.Type = "postgres" },
			errMsg: "journal.type must be",
		},
		{
			name: "csv without files",
			mutate: func(c *Config) {
				c.Journal = JournalConfig{Type: "csv", TradesFile: "trades.csv"}
			},
			errMsg: "trades_file and equity_file required",
		},
		{
			name:   "sqlite without path",
			mutate: func(c *Config) { c.Journal.DBPath = "" },
			errMsg: "db_path required",
		},
		{
			name:   "unparsable fee",
			mutate: func(c *Config) { c.Run.FeeRate = "a lot" },
			errMsg: "run.fee_rate",
		},
		{
			name:   "unknown rounding",
			mutate: func(c *Config) { c.Run.Rounding = "ceiling" },
			errMsg: "invalid rounding",
		},
		{
			name:   "negative stop loss",
			mutate: func(c *Config) { c.Run.StopLossPct = "-0.1" },
			errMsg: "invalid stop_loss_pct",
		},
		{
			name:   "bad start",
			mutate: func(c *Config) { c.Run.Start = "yesterday" },
			errMsg: "run.start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateKeepsConfigError(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Run.SlippageRate = "1"

	err := cfg.Validate()
	var ce *backtest.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "slippage_rate", ce.Field)
	assert.ErrorIs(t, err, backtest.ErrInvalidConfig)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"run.yaml", "run.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Run.StopLossPct = "0.05"
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("run: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("data:\n  prices_file: p.csv\n"), 0644))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid config")
}
