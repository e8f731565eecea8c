package backtest

import (
	"iter"
	"slices"
	"time"

	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Run is the aggregate record of one simulation.
//
// FinalBalance is realized cash only: a position still open when the
// signals run out is not marked to market. Check Result.OpenPosition.
type Run struct {
	Start          time.Time
	End            time.Time
	InitialBalance decimal.Decimal
	FinalBalance   decimal.Decimal
}

// Result is everything a run produced. It is not modified after Run returns.
type Result struct {
	Run    Run
	Params Params
	Trades []Trade

	// OpenPosition is the long left open at the end of the run, if any.
	OpenPosition Position

	// DataGaps counts entries whose exit scan ran out of prices.
	DataGaps int

	// Ignored counts signals that did not change state.
	Ignored int

	equity []EquityPoint
}

// Equity yields the balance after every fill, in ledger order. The sequence
// can be ranged over any number of times.
func (r Result) Equity() iter.Seq[EquityPoint] {
	return slices.Values(r.equity)
}

// EquityPoints returns a copy of the equity curve.
func (r Result) EquityPoints() []EquityPoint {
	return slices.Clone(r.equity)
}

// Runner replays a signal stream against a price series for one instrument.
type Runner struct {
	Params Params
	Logger logrus.FieldLogger
}

// NewRunner returns a Runner using the standard logrus logger.
func NewRunner(p Params) *Runner {
	return &Runner{Params: p}
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

// Run simulates following signals with a single long-only position.
//
// Both inputs are restricted to [Params.Start, Params.End] and neither slice
// is modified. Every signal goes to the position state machine in time
// order. A state-changing BUY is immediately followed by the exit scan when
// take-profit or stop-loss is configured, and the automatic SELL is booked
// before the next signal is looked at.
func (r *Runner) Run(prices []market.PricePoint, signals []market.Signal) (Result, error) {
	p := r.Params
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	log := r.logger()

	points := market.FilterPrices(prices, p.Start, p.End)
	sigs := market.FilterSignals(signals, p.Start, p.End)

	start, end := bounds(p.Start, p.End, points, sigs)
	res := Result{
		Run: Run{
			Start:          start,
			End:            end,
			InitialBalance: p.InitialBalance,
		},
		Params: p,
	}

	b := newBook(p)
	scanner := NewScanner(points)

	for _, sig := range sigs {
		entry := log.WithFields(logrus.Fields{
			"signal_time": sig.Time,
			"side":        sig.Kind,
			"price":       sig.Price.String(),
		})
		switch sig.Kind {
		case market.Buy:
			t, ok, err := b.buy(sig.Price, sig.Time, sig.Time)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				entry.Debug("buy ignored")
				res.Ignored++
				continue
			}
			if !p.ExitsEnabled() {
				continue
			}

			rule := NewExitRule(t.Price, p.TakeProfitPct, p.StopLossPct)
			pt, reason, hit := scanner.Scan(t.FillTime, rule)
			if !hit {
				entry.Debug("no exit before end of price data, position stays open")
				res.DataGaps++
				continue
			}
			exit, _ := b.sell(pt.Price, pt.Time, pt.Time, reason)
			entry.WithFields(logrus.Fields{
				"exit_time":  pt.Time,
				"exit_price": exit.Price.String(),
				"reason":     reason,
			}).Debug("automatic exit")

		case market.Sell:
			if _, ok := b.sell(sig.Price, sig.Time, sig.Time, ReasonSignal); !ok {
				entry.Debug("sell ignored while flat")
				res.Ignored++
			}

		default:
			entry.Warn("unknown signal side")
			res.Ignored++
		}
	}

	res.Run.FinalBalance = b.cash
	res.Trades = b.trades
	res.equity = b.equity
	res.OpenPosition = b.pos
	return res, nil
}

// Backtest is shorthand for NewRunner(p).Run(prices, signals).
func Backtest(prices []market.PricePoint, signals []market.Signal, p Params) (Result, error) {
	return NewRunner(p).Run(prices, signals)
}

// bounds fills an open window side from the data actually used.
func bounds(start, end time.Time, points []market.PricePoint, sigs []market.Signal) (time.Time, time.Time) {
	var first, last time.Time
	see := func(t time.Time) {
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	for _, pt := range points {
		see(pt.Time)
	}
	for _, s := range sigs {
		see(s.Time)
	}
	if start.IsZero() {
		start = first
	}
	if end.IsZero() {
		end = last
	}
	return start, end
}
