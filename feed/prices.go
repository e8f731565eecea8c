package feed

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/sigbt/market"
)

// PriceReader yields price points one at a time.
type PriceReader struct {
	rows *rows
}

func NewPriceReader(r io.Reader, symbol string) *PriceReader {
	return &PriceReader{rows: newRows(r, nil, symbol, 2)}
}

// OpenPrices opens a price CSV file. The caller must Close it.
func OpenPrices(path, symbol string) (*PriceReader, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	return &PriceReader{rows: newRows(f, f, symbol, 2)}, nil
}

// Next returns (ok=false, err=nil) at EOF.
func (p *PriceReader) Next() (market.PricePoint, bool, error) {
	row, ok, err := p.rows.next()
	if err != nil || !ok {
		return market.PricePoint{}, false, err
	}
	if len(row) < 2 {
		return market.PricePoint{}, false, fmt.Errorf("feed: line %d: need time,price: %v", p.rows.line, row)
	}

	t, err := ParseTime(row[0])
	if err != nil {
		return market.PricePoint{}, false, fmt.Errorf("feed: line %d: %w", p.rows.line, err)
	}
	price, err := parseDecimal("price", row[1])
	if err != nil {
		return market.PricePoint{}, false, fmt.Errorf("feed: line %d: %w", p.rows.line, err)
	}
	return market.PricePoint{Time: t, Price: price}, true, nil
}

func (p *PriceReader) Close() error { return p.rows.close() }

// LoadPrices reads a whole series and checks it is ordered by time.
func LoadPrices(r io.Reader, symbol string) ([]market.PricePoint, error) {
	return collectPrices(NewPriceReader(r, symbol))
}

func LoadPricesFile(path, symbol string) ([]market.PricePoint, error) {
	pr, err := OpenPrices(path, symbol)
	if err != nil {
		return nil, err
	}
	defer pr.Close()
	return collectPrices(pr)
}

func collectPrices(pr *PriceReader) ([]market.PricePoint, error) {
	var out []market.PricePoint
	for {
		pt, ok, err := pr.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		if n := len(out); n > 0 && pt.Time.Before(out[n-1].Time) {
			return nil, fmt.Errorf("%w: line %d at %s", ErrUnordered, pr.rows.line, pt.Time.Format(time.RFC3339))
		}
		out = append(out, pt)
	}
}
