package backtest

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upDown is 1..10..1, one price per minute.
func upDown() []market.PricePoint {
	return series(append(rangeInts(1, 10), rangeInts(9, 1)...)...)
}

func windowed(p Params, from, to int) Params {
	p.Start = at(from)
	p.End = at(to)
	return p
}

func TestRunner_ProfitPath(t *testing.T) {
	t.Parallel()

	res, err := Backtest(upDown(), []market.Signal{buy(2, "3"), sell(7, "8")}, windowed(zeroCost(), 0, 20))
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, market.Buy, res.Trades[0].Side)
	assert.Equal(t, market.Sell, res.Trades[1].Side)
	assertDecimal(t, "333.33333333", res.Trades[0].Quantity)

	assertDecimal(t, "2666.66666664", res.Run.FinalBalance)
	expected := d("1000").Div(d("3")).Mul(d("8"))
	assert.True(t, expected.Round(2).Equal(res.Run.FinalBalance.Round(2)))
	assertDecimal(t, "1000", res.Run.InitialBalance)
	assert.Equal(t, at(0), res.Run.Start)
	assert.Equal(t, at(20), res.Run.End)
	assert.False(t, res.OpenPosition.Open())
}

func TestRunner_CostDrag(t *testing.T) {
	t.Parallel()

	p := windowed(zeroCost(), 0, 20)
	p.FeeRate = d("0.01")
	p.SlippageRate = d("0.01")

	res, err := Backtest(upDown(), []market.Signal{buy(2, "3"), sell(7, "8")}, p)
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	assert.True(t, res.Run.FinalBalance.GreaterThan(d("1000")))
	assert.True(t, res.Run.FinalBalance.LessThan(d("2666.67")))

	exit := res.Trades[1]
	proceeds := exit.Quantity.Mul(exit.Price).Sub(exit.Fee)
	assert.True(t, res.Run.FinalBalance.Equal(proceeds))
}

func TestRunner_TakeProfit(t *testing.T) {
	t.Parallel()

	p := windowed(zeroCost(), 0, 10)
	p.TakeProfitPct = dp("0.5")

	res, err := Backtest(series(rangeInts(1, 10)...), []market.Signal{buy(2, "3")}, p)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	exit := res.Trades[1]
	assert.Equal(t, market.Sell, exit.Side)
	assert.Equal(t, ReasonTakeProfit, exit.Reason)
	assert.True(t, exit.Price.GreaterThanOrEqual(d("4.5")))
	assert.Equal(t, at(4), exit.FillTime)
	assert.Equal(t, at(4), exit.SignalTime)
	assert.True(t, res.Run.FinalBalance.GreaterThan(res.Run.InitialBalance))
	assert.Zero(t, res.DataGaps)
}

func TestRunner_BuyBetweenEntryAndAutomaticExit(t *testing.T) {
	t.Parallel()

	p := windowed(zeroCost(), 0, 10)
	p.TakeProfitPct = dp("0.5")

	signals := []market.Signal{
		buy(2, "3"),  // take at 4.5, hit at minute 4
		buy(3, "4"),  // flat again after the exit: re-enters, take at 6
		sell(8, "9"), // flat by then: ignored
	}

	res, err := Backtest(series(rangeInts(1, 10)...), signals, p)
	require.NoError(t, err)

	require.Len(t, res.Trades, 4)
	assert.Equal(t, ReasonTakeProfit, res.Trades[1].Reason)
	assert.Equal(t, at(4), res.Trades[1].FillTime)

	reentry := res.Trades[2]
	assert.Equal(t, market.Buy, reentry.Side)
	assert.Equal(t, at(3), reentry.FillTime)
	assertDecimal(t, "4", reentry.Price)
	assertDecimal(t, "416.66666666", reentry.Quantity)

	exit := res.Trades[3]
	assert.Equal(t, ReasonTakeProfit, exit.Reason)
	assert.Equal(t, at(5), exit.FillTime)
	assertDecimal(t, "6", exit.Price)

	assert.Equal(t, 1, res.Ignored)
	assert.False(t, IsHolding(res.Trades))
	assertDecimal(t, "2499.99999996", res.Run.FinalBalance)
}

func TestRunner_StopLossLeavesLaterEntryOpen(t *testing.T) {
	t.Parallel()

	p := windowed(zeroCost(), 0, 20)
	p.StopLossPct = dp("0.25")

	// falls 10..1 then rises again
	prices := series(append(rangeInts(10, 1), rangeInts(2, 10)...)...)
	signals := []market.Signal{
		buy(2, "8"),  // stop at 6, hit at minute 4
		sell(5, "5"), // flat: ignored
		buy(10, "2"), // stop at 1.5, never hit
	}

	res, err := Backtest(prices, signals, p)
	require.NoError(t, err)

	require.Len(t, res.Trades, 3)
	assert.Equal(t, ReasonStopLoss, res.Trades[1].Reason)
	assert.Equal(t, at(4), res.Trades[1].FillTime)
	assert.Equal(t, 1, res.Ignored)
	assert.Equal(t, 1, res.DataGaps)
	assert.True(t, res.OpenPosition.Open())
	assert.True(t, IsHolding(res.Trades))

	// open position is not marked to market
	assert.True(t, res.Run.FinalBalance.IsZero())
}

func TestRunner_EmptySignals(t *testing.T) {
	t.Parallel()

	res, err := Backtest(upDown(), nil, windowed(DefaultParams(), 0, 20))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.True(t, res.Run.FinalBalance.Equal(res.Run.InitialBalance))

	res, err = Backtest(nil, nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assertDecimal(t, "1000", res.Run.FinalBalance)
	assert.True(t, res.Run.Start.IsZero())
}

func TestRunner_WindowFiltersSignals(t *testing.T) {
	t.Parallel()

	signals := []market.Signal{buy(1, "2"), sell(7, "8"), buy(12, "8"), sell(15, "5")}
	res, err := Backtest(upDown(), signals, windowed(zeroCost(), 5, 12))
	require.NoError(t, err)

	// sell(7) is ignored while flat, buy(12) sits on the inclusive end
	require.Len(t, res.Trades, 1)
	assert.Equal(t, at(12), res.Trades[0].FillTime)
	assert.Equal(t, 1, res.Ignored)
}

func TestRunner_UnsortedSignalsAreOrdered(t *testing.T) {
	t.Parallel()

	signals := []market.Signal{sell(7, "8"), buy(2, "3")}
	orig := slices.Clone(signals)

	res, err := Backtest(upDown(), signals, zeroCost())
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, market.Buy, res.Trades[0].Side)
	assert.Equal(t, orig, signals, "input must not be reordered")
}

func TestRunner_Idempotent(t *testing.T) {
	t.Parallel()

	p := windowed(DefaultParams(), 0, 20)
	p.TakeProfitPct = dp("0.4")
	p.StopLossPct = dp("0.1")
	signals := []market.Signal{buy(2, "3"), sell(7, "8"), buy(11, "8"), sell(16, "3")}

	a, err := Backtest(upDown(), signals, p)
	require.NoError(t, err)
	b, err := Backtest(upDown(), signals, p)
	require.NoError(t, err)

	assert.Equal(t, a.Trades, b.Trades)
	assert.True(t, a.Run.FinalBalance.Equal(b.Run.FinalBalance))
	assert.Equal(t, a.EquityPoints(), b.EquityPoints())
}

func TestRunner_CashDeltasReconcile(t *testing.T) {
	t.Parallel()

	p := windowed(DefaultParams(), 0, 20)
	p.FeeRate = d("0.00075")
	p.SlippageRate = d("0.0005")
	signals := []market.Signal{buy(1, "2"), sell(4, "5"), buy(9, "10"), sell(13, "6"), buy(17, "3")}

	res, err := Backtest(upDown(), signals, p)
	require.NoError(t, err)
	require.Len(t, res.Trades, 5)

	sum := decimal.Zero
	for _, tr := range res.Trades {
		sum = sum.Add(tr.CashDelta)
	}
	assert.True(t, sum.Equal(res.Run.FinalBalance.Sub(res.Run.InitialBalance)),
		"sum %s net %s", sum, res.Run.FinalBalance.Sub(res.Run.InitialBalance))
}

func TestRunner_EquityCurve(t *testing.T) {
	t.Parallel()

	res, err := Backtest(upDown(), []market.Signal{buy(2, "3"), sell(7, "8")}, zeroCost())
	require.NoError(t, err)

	first := slices.Collect(res.Equity())
	second := slices.Collect(res.Equity())
	require.Len(t, first, len(res.Trades))
	assert.Equal(t, first, second, "sequence is restartable")

	for i, pt := range first {
		assert.Equal(t, res.Trades[i].FillTime, pt.Time)
		assert.True(t, res.Trades[i].Balance.Equal(pt.Balance))
	}
}

func TestRunner_QuantityPrecision(t *testing.T) {
	t.Parallel()

	p := zeroCost()
	p.QtyPrecision = 0
	res, err := Backtest(upDown(), []market.Signal{buy(2, "3")}, p)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assertDecimal(t, "333", res.Trades[0].Quantity)

	p.QtyPrecision = 2
	p.Rounding = RoundDown
	res, err = Backtest(upDown(), []market.Signal{buy(2, "3")}, p)
	require.NoError(t, err)
	assertDecimal(t, "333.33", res.Trades[0].Quantity)
}

func TestRunner_ConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field string
		mod   func(*Params)
	}{
		{"negative fee", "fee_rate", func(p *Params) { p.FeeRate = d("-0.1") }},
		{"negative slippage", "slippage_rate", func(p *Params) { p.SlippageRate = d("-0.1") }},
		{"slippage of one", "slippage_rate", func(p *Params) { p.SlippageRate = d("1") }},
		{"negative precision", "qty_precision", func(p *Params) { p.QtyPrecision = -1 }},
		{"zero balance", "initial_balance", func(p *Params) { p.InitialBalance = decimal.Zero }},
		{"end before start", "end", func(p *Params) { p.Start = at(5); p.End = at(1) }},
		{"negative take profit", "take_profit_pct", func(p *Params) { p.TakeProfitPct = dp("-1") }},
		{"negative stop loss", "stop_loss_pct", func(p *Params) { p.StopLossPct = dp("-1") }},
		{"unknown rounding", "rounding", func(p *Params) { p.Rounding = "sideways" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultParams()
			tt.mod(&p)

			res, err := Backtest(upDown(), []market.Signal{buy(2, "3")}, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.field, ce.Field)
			assert.Empty(t, res.Trades)
		})
	}
}

func TestRunner_ArithmeticErrorAborts(t *testing.T) {
	t.Parallel()

	signals := []market.Signal{buy(1, "2"), sell(2, "3"), buy(3, "0"), sell(4, "5")}
	_, err := Backtest(upDown(), signals, zeroCost())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArithmetic))
}

func TestRunner_LogsDataGap(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	p := zeroCost()
	p.TakeProfitPct = dp("100")
	r := &Runner{Params: p, Logger: logger}

	res, err := r.Run(upDown(), []market.Signal{buy(2, "3")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.DataGaps)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "no exit before end of price data, position stays open" {
			found = true
			assert.Equal(t, at(2), e.Data["signal_time"].(time.Time))
		}
	}
	assert.True(t, found)
}
