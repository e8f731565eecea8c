package backtest

import (
	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundTrip pairs an entry with the exit that closed it.
type RoundTrip struct {
	Entry Trade
	Exit  Trade
	PL    decimal.Decimal
}

// RoundTrips pairs every BUY with the SELL that follows it. A trailing
// unmatched BUY is left out.
func RoundTrips(trades []Trade) []RoundTrip {
	var out []RoundTrip
	var entry *Trade
	for i := range trades {
		t := trades[i]
		switch {
		case t.Side == market.Buy:
			entry = &trades[i]
		case t.Side == market.Sell && entry != nil:
			out = append(out, RoundTrip{
				Entry: *entry,
				Exit:  t,
				PL:    entry.CashDelta.Add(t.CashDelta),
			})
			entry = nil
		}
	}
	return out
}

// Summary holds the headline statistics of a run. Percentages are in
// percent, rounded to 4 places.
type Summary struct {
	NetPL     decimal.Decimal
	ReturnPct decimal.Decimal
	TotalFees decimal.Decimal

	Fills      int
	RoundTrips int
	Wins       int
	Losses     int
	WinRate    decimal.Decimal

	// ProfitFactor is gross profit over gross loss; zero when nothing lost.
	ProfitFactor decimal.Decimal

	// MaxDrawdownPct is measured on realized cash, i.e. the initial balance
	// and the balance after each exit.
	MaxDrawdownPct decimal.Decimal
}

func Summarize(res Result) Summary {
	s := Summary{
		NetPL: res.Run.FinalBalance.Sub(res.Run.InitialBalance),
		Fills: len(res.Trades),
	}
	if res.Run.InitialBalance.IsPositive() {
		s.ReturnPct = s.NetPL.Div(res.Run.InitialBalance).Mul(hundred).Round(4)
	}
	for _, t := range res.Trades {
		s.TotalFees = s.TotalFees.Add(t.Fee)
	}

	var gross, loss decimal.Decimal
	trips := RoundTrips(res.Trades)
	s.RoundTrips = len(trips)
	for _, rt := range trips {
		switch {
		case rt.PL.IsPositive():
			s.Wins++
			gross = gross.Add(rt.PL)
		case rt.PL.IsNegative():
			s.Losses++
			loss = loss.Add(rt.PL.Neg())
		}
	}
	if s.RoundTrips > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(decimal.NewFromInt(int64(s.RoundTrips))).Mul(hundred).Round(4)
	}
	if loss.IsPositive() {
		s.ProfitFactor = gross.Div(loss).Round(4)
	}

	peak := res.Run.InitialBalance
	for _, t := range res.Trades {
		if t.Side != market.Sell {
			continue
		}
		if t.Balance.GreaterThan(peak) {
			peak = t.Balance
			continue
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(t.Balance).Div(peak).Mul(hundred).Round(4)
		if dd.GreaterThan(s.MaxDrawdownPct) {
			s.MaxDrawdownPct = dd
		}
	}
	return s
}
