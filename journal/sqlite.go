package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/sigbt/backtest"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// SaveRun writes the run, its trades and its equity curve in a single
// transaction, so readers never see a partial ledger.
func (j *SQLite) SaveRun(ctx context.Context, rec RunRecord, trades []backtest.Trade, equity []backtest.EquityPoint) (err error) {
	if rec.RunID == "" {
		return fmt.Errorf("journal: run id is required")
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, created, symbol, dataset, start_time, end_time, initial_balance, final_balance,
		 fee_rate, slippage_rate, qty_precision, rounding, take_profit_pct, stop_loss_pct,
		 trades, data_gaps, open_quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Created.UTC(), rec.Symbol, rec.Dataset, rec.Start.UTC(), rec.End.UTC(),
		rec.InitialBalance, rec.FinalBalance, rec.FeeRate, rec.SlippageRate, rec.QtyPrecision,
		rec.Rounding, rec.TakeProfitPct, rec.StopLossPct, rec.Trades, rec.DataGaps, rec.OpenQuantity,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	tstmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
		(run_id, seq, side, price, signal_price, qty, fee, cash_delta, balance, ts_signal, ts_fill, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer tstmt.Close()

	for i, t := range trades {
		_, err = tstmt.ExecContext(ctx,
			rec.RunID, i, string(t.Side), t.Price, t.SignalPrice, t.Quantity, t.Fee,
			t.CashDelta, t.Balance, t.SignalTime.UTC(), t.FillTime.UTC(), string(t.Reason),
		)
		if err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	estmt, err := tx.PrepareContext(ctx, `INSERT INTO equity (run_id, seq, time, balance) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer estmt.Close()

	for i, e := range equity {
		if _, err = estmt.ExecContext(ctx, rec.RunID, i, e.Time.UTC(), e.Balance); err != nil {
			return fmt.Errorf("insert equity %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// SaveResult stores res under rec. The ledger and curve come from res.
func (j *SQLite) SaveResult(ctx context.Context, rec RunRecord, res backtest.Result) error {
	return j.SaveRun(ctx, rec, res.Trades, res.EquityPoints())
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
