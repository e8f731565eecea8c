package backtest

import (
	"testing"
	"time"

	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func at(minute int) time.Time { return base.Add(time.Duration(minute) * time.Minute) }

// series returns one price per minute starting at base.
func series(prices ...int64) []market.PricePoint {
	out := make([]market.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = market.PricePoint{Time: at(i), Price: decimal.NewFromInt(p)}
	}
	return out
}

func rangeInts(from, to int64) []int64 {
	var out []int64
	step := int64(1)
	if to < from {
		step = -1
	}
	for v := from; ; v += step {
		out = append(out, v)
		if v == to {
			return out
		}
	}
}

func buy(minute int, price string) market.Signal {
	return market.Signal{Time: at(minute), Kind: market.Buy, Price: d(price)}
}

func sell(minute int, price string) market.Signal {
	return market.Signal{Time: at(minute), Kind: market.Sell, Price: d(price)}
}

func zeroCost() Params {
	p := DefaultParams()
	p.FeeRate = decimal.Zero
	p.SlippageRate = decimal.Zero
	return p
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}
