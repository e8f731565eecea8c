// Package feed loads price series and signal streams from CSV.
//
// Prices:  time,price[,symbol]
// Signals: time,side,price[,symbol]
//
// time is RFC3339, RFC3339Nano, "2006-01-02 15:04:05" (UTC) or unix seconds.
// A single header row whose first column is "time" is allowed and blank rows
// are skipped. When a symbol filter is set, rows carrying a different symbol
// are dropped; rows without a symbol column always pass.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnordered is returned when a price series goes back in time.
var ErrUnordered = errors.New("feed: price series is not ordered by time")

// rows wraps a csv.Reader with the header/blank/symbol handling shared by
// both feeds.
type rows struct {
	closer   io.Closer
	r        *csv.Reader
	symbol   string
	symCol   int
	line     int
	sawFirst bool
}

func newRows(r io.Reader, closer io.Closer, symbol string, symCol int) *rows {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &rows{closer: closer, r: cr, symbol: strings.TrimSpace(symbol), symCol: symCol}
}

// next returns the next data row, or ok=false at EOF.
func (rs *rows) next() (row []string, ok bool, err error) {
	for {
		row, err := rs.r.Read()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		rs.line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if !rs.sawFirst {
			rs.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		if rs.symbol != "" && len(row) > rs.symCol {
			if !strings.EqualFold(strings.TrimSpace(row[rs.symCol]), rs.symbol) {
				continue
			}
		}
		return row, true, nil
	}
}

func (rs *rows) close() error {
	if rs.closer != nil {
		return rs.closer.Close()
	}
	return nil
}

var layouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// ParseTime accepts the timestamp forms listed in the package doc.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad %s %q: %w", name, s, err)
	}
	return v, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return f, nil
}
