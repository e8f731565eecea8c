package market

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a signal or a fill.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts BUY/SELL in any case, with surrounding whitespace.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

func (s Side) String() string { return string(s) }

// Signal is a BUY or SELL event produced by an indicator upstream.
type Signal struct {
	Time  time.Time
	Kind  Side
	Price decimal.Decimal
}

// FilterSignals returns a new slice holding the signals inside [start, end].
// Signals are sorted by time; equal timestamps keep their input order.
func FilterSignals(signals []Signal, start, end time.Time) []Signal {
	out := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if InWindow(s.Time, start, end) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
