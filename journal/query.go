package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/rustyeddy/sigbt/market"
)

const runColumns = `run_id, created, symbol, dataset, start_time, end_time, initial_balance, final_balance,
	fee_rate, slippage_rate, qty_precision, rounding, take_profit_pct, stop_loss_pct,
	trades, data_gaps, open_quantity`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var rec RunRecord
	err := s.Scan(
		&rec.RunID, &rec.Created, &rec.Symbol, &rec.Dataset, &rec.Start, &rec.End,
		&rec.InitialBalance, &rec.FinalBalance, &rec.FeeRate, &rec.SlippageRate,
		&rec.QtyPrecision, &rec.Rounding, &rec.TakeProfitPct, &rec.StopLossPct,
		&rec.Trades, &rec.DataGaps, &rec.OpenQuantity,
	)
	return rec, err
}

// GetRun returns a single run by id.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the newest runs first. limit <= 0 returns all of them.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	q := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the ledger of a run in fill order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT side, price, signal_price, qty, fee, cash_delta, balance, ts_signal, ts_fill, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var (
			t            backtest.Trade
			side, reason string
		)
		if err := rows.Scan(
			&side, &t.Price, &t.SignalPrice, &t.Quantity, &t.Fee, &t.CashDelta,
			&t.Balance, &t.SignalTime, &t.FillTime, &reason,
		); err != nil {
			return nil, err
		}
		t.Side = market.Side(side)
		t.Reason = backtest.Reason(reason)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the equity curve of a run.
func (j *SQLite) ListEquity(ctx context.Context, runID string) ([]backtest.EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, balance
		FROM equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.EquityPoint
	for rows.Next() {
		var e backtest.EquityPoint
		if err := rows.Scan(&e.Time, &e.Balance); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
