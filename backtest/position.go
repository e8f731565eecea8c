package backtest

import (
	"time"

	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
)

// State of the single position a run can hold.
type State int

const (
	Flat State = iota
	Long
)

func (s State) String() string {
	if s == Long {
		return "LONG"
	}
	return "FLAT"
}

// Position is the open long, if any. The zero value is flat.
type Position struct {
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	EntryTime  time.Time
}

func (p Position) State() State {
	if p.Quantity.IsPositive() {
		return Long
	}
	return Flat
}

func (p Position) Open() bool { return p.State() == Long }

// Reason records what caused a fill.
type Reason string

const (
	ReasonSignal     Reason = "signal"
	ReasonTakeProfit Reason = "take_profit"
	ReasonStopLoss   Reason = "stop_loss"

	// ReasonTakeOrStop marks a tick that crossed both thresholds at once.
	ReasonTakeOrStop Reason = "take_profit|stop_loss"
)

// Trade is one fill in the run ledger. Price is the executed price after
// slippage; SignalPrice is the raw price that triggered it. CashDelta is the
// change in cash caused by the fill and Balance the cash right after it.
type Trade struct {
	Side        market.Side
	Price       decimal.Decimal
	SignalPrice decimal.Decimal
	Quantity    decimal.Decimal
	Fee         decimal.Decimal
	CashDelta   decimal.Decimal
	Balance     decimal.Decimal
	SignalTime  time.Time
	FillTime    time.Time
	Reason      Reason
}

// EquityPoint samples cash after a fill.
type EquityPoint struct {
	Time    time.Time
	Balance decimal.Decimal
}

// IsHolding reports whether the ledger has a BUY without a matching SELL.
func IsHolding(trades []Trade) bool {
	buys, sells := 0, 0
	for _, t := range trades {
		switch t.Side {
		case market.Buy:
			buys++
		case market.Sell:
			sells++
		}
	}
	return buys > sells
}

// book is the FLAT/LONG state machine together with the cash it trades from
// and the ledger it writes. It is owned by a single run.
type book struct {
	params Params
	cash   decimal.Decimal
	pos    Position
	trades []Trade
	equity []EquityPoint
}

func newBook(p Params) *book {
	return &book{params: p, cash: p.InitialBalance}
}

// buy opens a long with the whole cash balance. It reports false, with no
// error, when the book is already long or the quantity rounds to zero.
//
// The entry fee is paid from the cash that was just deployed, so the balance
// after a BUY is the negated fee.
func (b *book) buy(raw decimal.Decimal, signalTime, fillTime time.Time) (Trade, bool, error) {
	if b.pos.Open() {
		return Trade{}, false, nil
	}
	price := FillPrice(raw, market.Buy, b.params.SlippageRate)
	if !price.IsPositive() {
		return Trade{}, false, &ArithmeticError{Op: "buy", Time: signalTime, Price: price}
	}
	if !b.cash.IsPositive() {
		return Trade{}, false, nil
	}

	qty := Quantize(b.cash, price, b.params.QtyPrecision, b.params.rounding())
	if !qty.IsPositive() {
		return Trade{}, false, nil
	}
	fee := Fee(qty, price, b.params.FeeRate)

	before := b.cash
	b.cash = fee.Neg()
	b.pos = Position{Quantity: qty, EntryPrice: price, EntryTime: fillTime}

	t := Trade{
		Side:        market.Buy,
		Price:       price,
		SignalPrice: raw,
		Quantity:    qty,
		Fee:         fee,
		CashDelta:   b.cash.Sub(before),
		Balance:     b.cash,
		SignalTime:  signalTime,
		FillTime:    fillTime,
		Reason:      ReasonSignal,
	}
	b.record(t)
	return t, true, nil
}

// sell closes the whole position. Cash is replaced by the net proceeds.
func (b *book) sell(raw decimal.Decimal, signalTime, fillTime time.Time, reason Reason) (Trade, bool) {
	if !b.pos.Open() {
		return Trade{}, false
	}
	qty := b.pos.Quantity
	price, fee := Fill(raw, qty, market.Sell, b.params.FeeRate, b.params.SlippageRate)
	proceeds := qty.Mul(price).Sub(fee)

	before := b.cash
	b.cash = proceeds
	b.pos = Position{}

	t := Trade{
		Side:        market.Sell,
		Price:       price,
		SignalPrice: raw,
		Quantity:    qty,
		Fee:         fee,
		CashDelta:   b.cash.Sub(before),
		Balance:     b.cash,
		SignalTime:  signalTime,
		FillTime:    fillTime,
		Reason:      reason,
	}
	b.record(t)
	return t, true
}

func (b *book) record(t Trade) {
	b.trades = append(b.trades, t)
	b.equity = append(b.equity, EquityPoint{Time: t.FillTime, Balance: t.Balance})
}
