package backtest

import (
	"errors"
	"testing"

	"github.com/rustyeddy/sigbt/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookBuyFromFlat(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.FeeRate = d("0.01")
	p.SlippageRate = d("0.01")
	b := newBook(p)

	tr, ok, err := b.buy(d("3"), at(2), at(2))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, Long, b.pos.State())
	assertDecimal(t, "3.03", tr.Price)
	assertDecimal(t, "3", tr.SignalPrice)
	assert.True(t, Quantize(d("1000"), d("3.03"), 8, RoundHalfEven).Equal(tr.Quantity))
	assert.True(t, tr.Fee.Equal(Fee(tr.Quantity, tr.Price, p.FeeRate)))

	// the fee comes out of already deployed cash
	assert.True(t, b.cash.Equal(tr.Fee.Neg()))
	assert.True(t, b.cash.IsNegative())
	assert.True(t, tr.CashDelta.Equal(d("-1000").Sub(tr.Fee)))
	assert.Len(t, b.equity, 1)
	assert.True(t, IsHolding(b.trades))
}

func TestBookSellFromLong(t *testing.T) {
	t.Parallel()

	p := DefaultParams()
	p.FeeRate = d("0.002")
	p.SlippageRate = d("0.001")
	b := newBook(p)

	entry, ok, err := b.buy(d("100"), at(0), at(0))
	require.NoError(t, err)
	require.True(t, ok)

	exit, ok := b.sell(d("110"), at(5), at(5), ReasonSignal)
	require.True(t, ok)

	assert.Equal(t, Flat, b.pos.State())
	assert.True(t, b.pos.Quantity.IsZero())
	assert.True(t, exit.Quantity.Equal(entry.Quantity))
	assertDecimal(t, "109.89", exit.Price)

	proceeds := exit.Quantity.Mul(exit.Price).Sub(exit.Fee)
	assert.True(t, b.cash.Equal(proceeds), "cash %s proceeds %s", b.cash, proceeds)
	assert.True(t, exit.Balance.Equal(proceeds))
	assert.False(t, IsHolding(b.trades))
}

func TestBookNoOps(t *testing.T) {
	t.Parallel()

	b := newBook(zeroCost())

	_, ok := b.sell(d("5"), at(0), at(0), ReasonSignal)
	assert.False(t, ok, "sell while flat")
	assert.Empty(t, b.trades)

	_, ok, err := b.buy(d("5"), at(1), at(1))
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = b.buy(d("4"), at(2), at(2))
	require.NoError(t, err)
	assert.False(t, ok, "buy while long")
	assert.Len(t, b.trades, 1)
	assertDecimal(t, "5", b.pos.EntryPrice)
}

func TestBookZeroQuantity(t *testing.T) {
	t.Parallel()

	p := zeroCost()
	p.InitialBalance = d("0.000000001")
	b := newBook(p)

	_, ok, err := b.buy(d("1"), at(0), at(0))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Flat, b.pos.State())
	assert.Empty(t, b.trades)
	assertDecimal(t, "0.000000001", b.cash)
}

func TestBookBuyAtZeroPrice(t *testing.T) {
	t.Parallel()

	b := newBook(zeroCost())
	_, _, err := b.buy(d("0"), at(0), at(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArithmetic))

	var ae *ArithmeticError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "buy", ae.Op)
	assert.Equal(t, at(0), ae.Time)
}

func TestPositionState(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Flat, Position{}.State())
	assert.Equal(t, "FLAT", Flat.String())
	assert.Equal(t, "LONG", Position{Quantity: d("0.1")}.State().String())
	assert.False(t, IsHolding(nil))
	assert.True(t, IsHolding([]Trade{{Side: market.Buy}}))
}
