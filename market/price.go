package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single observed price for one instrument.
type PricePoint struct {
	Time  time.Time
	Price decimal.Decimal
}

// InWindow reports whether t falls inside [start, end]. A zero start or end
// leaves that side of the window open.
func InWindow(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

// FilterPrices returns a new slice holding the points inside [start, end],
// ordered by time. The input slice is never modified.
func FilterPrices(points []PricePoint, start, end time.Time) []PricePoint {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if InWindow(p.Time, start, end) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Ordered reports whether points are non-decreasing in time.
func Ordered(points []PricePoint) bool {
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			return false
		}
	}
	return true
}
