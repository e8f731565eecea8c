package backtest

import (
	"github.com/rustyeddy/sigbt/market"
	"github.com/shopspring/decimal"
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// FillPrice applies slippage against the trader: BUYs fill above the raw
// price and SELLs below it.
func FillPrice(raw decimal.Decimal, side market.Side, slippageRate decimal.Decimal) decimal.Decimal {
	if side == market.Buy {
		return raw.Mul(one.Add(slippageRate))
	}
	return raw.Mul(one.Sub(slippageRate))
}

// Fee is the commission charged on qty units filled at price.
func Fee(qty, price, feeRate decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Mul(feeRate).Abs()
}

// Fill returns the executed price and fee for qty units of a raw signal
// price. Slippage is applied first and the fee is charged on the slipped
// notional; changing that order changes every historical result.
func Fill(raw, qty decimal.Decimal, side market.Side, feeRate, slippageRate decimal.Decimal) (price, fee decimal.Decimal) {
	price = FillPrice(raw, side, slippageRate)
	return price, Fee(qty, price, feeRate)
}

// Quantize divides num by den and rounds the exact quotient to places
// fractional digits. Both operands must be positive.
//
// The quotient is never approximated before rounding: QuoRem yields the
// truncated digits and the exact remainder, and the remainder alone decides
// whether to step up one unit.
func Quantize(num, den decimal.Decimal, places int32, mode Rounding) decimal.Decimal {
	q, r := num.QuoRem(den, places)
	if r.IsZero() || mode == RoundDown {
		return q
	}

	unit := decimal.New(1, -places)
	half := r.Mul(two).Cmp(den.Mul(unit))

	up := false
	switch mode {
	case RoundHalfUp:
		up = half >= 0
	default:
		up = half > 0 || (half == 0 && !q.Shift(places).Mod(two).IsZero())
	}
	if up {
		q = q.Add(unit)
	}
	return q
}
