package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Rounding selects how entry quantities are quantized.
type Rounding string

const (
	RoundHalfEven Rounding = "half_even" // banker's rounding, the default
	RoundDown     Rounding = "down"      // truncate toward zero
	RoundHalfUp   Rounding = "half_up"
)

// DefaultQtyPrecision is the number of fractional digits kept on entry quantities.
const DefaultQtyPrecision int32 = 8

// ParseRounding accepts the names used in config files and CLI flags.
// The empty string maps to RoundHalfEven.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case "", RoundHalfEven:
		return RoundHalfEven, nil
	case RoundDown, RoundHalfUp:
		return Rounding(s), nil
	}
	return "", &ConfigError{Field: "rounding", Reason: fmt.Sprintf("unknown mode %q", s)}
}

// Params is the full parameter set of one run.
//
// TakeProfitPct and StopLossPct are optional and independent; nil disables
// that threshold. Rates are fractions, so 0.001 is 0.1%. A zero Start or End
// leaves that side of the window open.
type Params struct {
	InitialBalance decimal.Decimal
	FeeRate        decimal.Decimal
	SlippageRate   decimal.Decimal
	QtyPrecision   int32
	Rounding       Rounding

	TakeProfitPct *decimal.Decimal
	StopLossPct   *decimal.Decimal

	Start time.Time
	End   time.Time
}

// DefaultParams mirrors the defaults of the manual backtest command: 1000
// units of cash, 0.1% fee and 0.1% slippage.
func DefaultParams() Params {
	return Params{
		InitialBalance: decimal.NewFromInt(1000),
		FeeRate:        decimal.RequireFromString("0.001"),
		SlippageRate:   decimal.RequireFromString("0.001"),
		QtyPrecision:   DefaultQtyPrecision,
		Rounding:       RoundHalfEven,
	}
}

// Validate checks every parameter and returns the first *ConfigError found.
func (p Params) Validate() error {
	if !p.InitialBalance.IsPositive() {
		return &ConfigError{Field: "initial_balance", Reason: "must be positive"}
	}
	if p.FeeRate.IsNegative() {
		return &ConfigError{Field: "fee_rate", Reason: "must not be negative"}
	}
	if p.SlippageRate.IsNegative() {
		return &ConfigError{Field: "slippage_rate", Reason: "must not be negative"}
	}
	if p.SlippageRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return &ConfigError{Field: "slippage_rate", Reason: "must be below 1"}
	}
	if p.QtyPrecision < 0 {
		return &ConfigError{Field: "qty_precision", Reason: "must not be negative"}
	}
	if _, err := ParseRounding(string(p.Rounding)); err != nil {
		return err
	}
	if p.TakeProfitPct != nil && p.TakeProfitPct.IsNegative() {
		return &ConfigError{Field: "take_profit_pct", Reason: "must not be negative"}
	}
	if p.StopLossPct != nil && p.StopLossPct.IsNegative() {
		return &ConfigError{Field: "stop_loss_pct", Reason: "must not be negative"}
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return &ConfigError{Field: "end", Reason: "is before start"}
	}
	return nil
}

// ExitsEnabled reports whether the take-profit/stop-loss scanner runs after entries.
func (p Params) ExitsEnabled() bool {
	return p.TakeProfitPct != nil || p.StopLossPct != nil
}

func (p Params) rounding() Rounding {
	if p.Rounding == "" {
		return RoundHalfEven
	}
	return p.Rounding
}
