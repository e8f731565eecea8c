package journal

// Schema stores every decimal as TEXT so values read back exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	dataset TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	initial_balance TEXT NOT NULL,
	final_balance TEXT NOT NULL,
	fee_rate TEXT NOT NULL,
	slippage_rate TEXT NOT NULL,
	qty_precision INTEGER NOT NULL,
	rounding TEXT NOT NULL,
	take_profit_pct TEXT,
	stop_loss_pct TEXT,
	trades INTEGER NOT NULL,
	data_gaps INTEGER NOT NULL,
	open_quantity TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id),
	seq INTEGER NOT NULL,
	side TEXT NOT NULL,
	price TEXT NOT NULL,
	signal_price TEXT NOT NULL,
	qty TEXT NOT NULL,
	fee TEXT NOT NULL,
	cash_delta TEXT NOT NULL,
	balance TEXT NOT NULL,
	ts_signal DATETIME NOT NULL,
	ts_fill DATETIME NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id),
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	balance TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_trades_fill ON trades(ts_fill);
`
