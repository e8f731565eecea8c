package backtest

import (
	"sort"
	"time"

	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
)

// ExitRule holds the absolute take-profit and stop-loss prices of one
// position. A nil threshold never fires.
type ExitRule struct {
	Take *decimal.Decimal
	Stop *decimal.Decimal
}

// NewExitRule derives thresholds from the entry fill price:
// take = entry*(1+tp), stop = entry*(1-sl).
func NewExitRule(entry decimal.Decimal, takeProfitPct, stopLossPct *decimal.Decimal) ExitRule {
	var r ExitRule
	if takeProfitPct != nil {
		take := entry.Mul(one.Add(*takeProfitPct))
		r.Take = &take
	}
	if stopLossPct != nil {
		stop := entry.Mul(one.Sub(*stopLossPct))
		r.Stop = &stop
	}
	return r
}

// Check reports whether price crosses either threshold. When both are
// crossed by the same price the reason is ReasonTakeOrStop.
func (r ExitRule) Check(price decimal.Decimal) (Reason, bool) {
	take := r.Take != nil && price.GreaterThanOrEqual(*r.Take)
	stop := r.Stop != nil && price.LessThanOrEqual(*r.Stop)
	switch {
	case take && stop:
		return ReasonTakeOrStop, true
	case take:
		return ReasonTakeProfit, true
	case stop:
		return ReasonStopLoss, true
	}
	return "", false
}

// Scanner searches a time-ordered price series for automatic exits.
type Scanner struct {
	prices []market.PricePoint
}

// NewScanner wraps prices, which must already be sorted by time.
func NewScanner(prices []market.PricePoint) *Scanner {
	return &Scanner{prices: prices}
}

// Scan walks the points strictly after entryTime, in order, and returns the
// first one that triggers rule. ok is false when the data runs out first.
func (s *Scanner) Scan(entryTime time.Time, rule ExitRule) (pt market.PricePoint, reason Reason, ok bool) {
	i := sort.Search(len(s.prices), func(i int) bool {
		return s.prices[i].Time.After(entryTime)
	})
	for ; i < len(s.prices); i++ {
		if reason, hit := rule.Check(s.prices[i].Price); hit {
			return s.prices[i], reason, true
		}
	}
	return market.PricePoint{}, "", false
}
