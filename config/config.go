package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/rustyeddy/sigbt/feed"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents a complete backtest run configuration.
type Config struct {
	Run     RunConfig     `json:"run" yaml:"run"`
	Data    DataConfig    `json:"data" yaml:"data"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// RunConfig holds the simulation parameters. Numbers are kept as strings so
// they parse into exact decimals.
type RunConfig struct {
	InitialBalance string `json:"initial_balance" yaml:"initial_balance"`
	FeeRate        string `json:"fee_rate" yaml:"fee_rate"`
	SlippageRate   string `json:"slippage_rate" yaml:"slippage_rate"`
	QtyPrecision   *int32 `json:"qty_precision,omitempty" yaml:"qty_precision,omitempty"`
	Rounding       string `json:"rounding,omitempty" yaml:"rounding,omitempty"`
	TakeProfitPct  string `json:"take_profit_pct,omitempty" yaml:"take_profit_pct,omitempty"`
	StopLossPct    string `json:"stop_loss_pct,omitempty" yaml:"stop_loss_pct,omitempty"`
	Start          string `json:"start,omitempty" yaml:"start,omitempty"`
	End            string `json:"end,omitempty" yaml:"end,omitempty"`
}

// DataConfig names the input files.
type DataConfig struct {
	Symbol      string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	PricesFile  string `json:"prices_file" yaml:"prices_file"`
	SignalsFile string `json:"signals_file" yaml:"signals_file"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty"` // "", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks the file-level fields and that Params succeeds.
func (c *Config) Validate() error {
	if c.Data.PricesFile == "" {
		return fmt.Errorf("data.prices_file is required")
	}
	if c.Data.SignalsFile == "" {
		return fmt.Errorf("data.signals_file is required")
	}
	switch c.Journal.Type {
	case "":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}

	p, err := c.Params()
	if err != nil {
		return err
	}
	return p.Validate()
}

// Params converts the run section into backtest parameters. Empty numeric
// fields fall back to backtest.DefaultParams.
func (c *Config) Params() (backtest.Params, error) {
	p := backtest.DefaultParams()
	r := c.Run

	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"run.initial_balance", r.InitialBalance, &p.InitialBalance},
		{"run.fee_rate", r.FeeRate, &p.FeeRate},
		{"run.slippage_rate", r.SlippageRate, &p.SlippageRate},
	} {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return backtest.Params{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}

	if r.QtyPrecision != nil {
		p.QtyPrecision = *r.QtyPrecision
	}

	mode, err := backtest.ParseRounding(r.Rounding)
	if err != nil {
		return backtest.Params{}, err
	}
	p.Rounding = mode

	if p.TakeProfitPct, err = optionalDecimal("run.take_profit_pct", r.TakeProfitPct); err != nil {
		return backtest.Params{}, err
	}
	if p.StopLossPct, err = optionalDecimal("run.stop_loss_pct", r.StopLossPct); err != nil {
		return backtest.Params{}, err
	}

	if r.Start != "" {
		if p.Start, err = feed.ParseTime(r.Start); err != nil {
			return backtest.Params{}, fmt.Errorf("run.start: %w", err)
		}
	}
	if r.End != "" {
		if p.End, err = feed.ParseTime(r.End); err != nil {
			return backtest.Params{}, fmt.Errorf("run.end: %w", err)
		}
	}

	return p, nil
}

func optionalDecimal(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &v, nil
}

// Default returns a configuration with the standard run parameters.
func Default() *Config {
	precision := backtest.DefaultQtyPrecision
	return &Config{
		Run: RunConfig{
			InitialBalance: "1000",
			FeeRate:        "0.001",
			SlippageRate:   "0.001",
			QtyPrecision:   &precision,
			Rounding:       string(backtest.RoundHalfEven),
		},
		Data: DataConfig{
			Symbol:      "BTCUSDT",
			PricesFile:  "./prices.csv",
			SignalsFile: "./signals.csv",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./sigbt.db",
		},
	}
}
