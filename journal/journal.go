// Package journal stores finished backtest runs, their trade ledgers and
// equity curves.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/shopspring/decimal"
)

// ErrRunNotFound is returned when a run id is not in the journal.
var ErrRunNotFound = errors.New("journal: run not found")

// RunRecord mirrors the backtest_runs table.
type RunRecord struct {
	RunID   string
	Created time.Time
	Symbol  string
	Dataset string

	Start time.Time
	End   time.Time

	InitialBalance decimal.Decimal
	FinalBalance   decimal.Decimal

	FeeRate       decimal.Decimal
	SlippageRate  decimal.Decimal
	QtyPrecision  int32
	Rounding      string
	TakeProfitPct decimal.NullDecimal
	StopLossPct   decimal.NullDecimal

	Trades       int
	DataGaps     int
	OpenQuantity decimal.Decimal
}

// NewRunRecord describes res for storage. Created is stamped by the caller.
func NewRunRecord(runID, symbol, dataset string, res backtest.Result) RunRecord {
	p := res.Params
	rec := RunRecord{
		RunID:          runID,
		Symbol:         symbol,
		Dataset:        dataset,
		Start:          res.Run.Start,
		End:            res.Run.End,
		InitialBalance: res.Run.InitialBalance,
		FinalBalance:   res.Run.FinalBalance,
		FeeRate:        p.FeeRate,
		SlippageRate:   p.SlippageRate,
		QtyPrecision:   p.QtyPrecision,
		Rounding:       string(p.Rounding),
		Trades:         len(res.Trades),
		DataGaps:       res.DataGaps,
		OpenQuantity:   res.OpenPosition.Quantity,
	}
	if p.TakeProfitPct != nil {
		rec.TakeProfitPct = decimal.NewNullDecimal(*p.TakeProfitPct)
	}
	if p.StopLossPct != nil {
		rec.StopLossPct = decimal.NewNullDecimal(*p.StopLossPct)
	}
	return rec
}

// Result rebuilds enough of a backtest.Result from stored rows to summarize it.
func (r RunRecord) Result(trades []backtest.Trade) backtest.Result {
	return backtest.Result{
		Run: backtest.Run{
			Start:          r.Start,
			End:            r.End,
			InitialBalance: r.InitialBalance,
			FinalBalance:   r.FinalBalance,
		},
		Trades: trades,
	}
}

// Journal is the storage a backtest command writes to.
type Journal interface {
	SaveRun(ctx context.Context, rec RunRecord, trades []backtest.Trade, equity []backtest.EquityPoint) error
	GetRun(ctx context.Context, runID string) (RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	ListTrades(ctx context.Context, runID string) ([]backtest.Trade, error)
	ListEquity(ctx context.Context, runID string) ([]backtest.EquityPoint, error)
	Close() error
}
