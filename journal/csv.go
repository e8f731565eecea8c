package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/sigbt/backtest"
)

var tradeHeader = []string{
	"seq", "side", "price", "signal_price", "qty", "fee",
	"cash_delta", "balance", "ts_signal", "ts_fill", "reason",
}

// WriteTradesCSV writes a trade ledger with a header row. Decimals are
// written at full precision.
func WriteTradesCSV(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for i, t := range trades {
		rec := []string{
			strconv.Itoa(i),
			string(t.Side),
			t.Price.String(),
			t.SignalPrice.String(),
			t.Quantity.String(),
			t.Fee.String(),
			t.CashDelta.String(),
			t.Balance.String(),
			t.SignalTime.UTC().Format(time.RFC3339Nano),
			t.FillTime.UTC().Format(time.RFC3339Nano),
			string(t.Reason),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes an equity curve as time,balance rows.
func WriteEquityCSV(w io.Writer, equity []backtest.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "balance"}); err != nil {
		return err
	}
	for _, e := range equity {
		if err := cw.Write([]string{e.Time.UTC().Format(time.RFC3339Nano), e.Balance.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
