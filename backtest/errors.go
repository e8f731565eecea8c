package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("backtest: invalid configuration")

	// ErrArithmetic is matched by every *ArithmeticError.
	ErrArithmetic = errors.New("backtest: arithmetic error")
)

// ConfigError reports a parameter that failed validation. A run that returns
// a ConfigError has not processed any signal.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("backtest: invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// ArithmeticError aborts a run when a fill cannot be computed, e.g. a BUY
// at a non-positive price would size the position by dividing by zero.
type ArithmeticError struct {
	Op    string
	Time  time.Time
	Price decimal.Decimal
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("backtest: %s at %s: fill price %s", e.Op, e.Time.UTC().Format(time.RFC3339), e.Price)
}

func (e *ArithmeticError) Unwrap() error { return ErrArithmetic }
