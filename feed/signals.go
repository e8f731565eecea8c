package feed

import (
	"fmt"
	"io"

	"github.com/rustyeddy/sigbt/market"
)

// SignalReader yields signals one at a time, in file order.
type SignalReader struct {
	rows *rows
}

func NewSignalReader(r io.Reader, symbol string) *SignalReader {
	return &SignalReader{rows: newRows(r, nil, symbol, 3)}
}

// OpenSignals opens a signal CSV file. The caller must Close it.
func OpenSignals(path, symbol string) (*SignalReader, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	return &SignalReader{rows: newRows(f, f, symbol, 3)}, nil
}

// Next returns (ok=false, err=nil) at EOF.
func (s *SignalReader) Next() (market.Signal, bool, error) {
	row, ok, err := s.rows.next()
	if err != nil || !ok {
		return market.Signal{}, false, err
	}
	if len(row) < 3 {
		return market.Signal{}, false, fmt.Errorf("feed: line %d: need time,side,price: %v", s.rows.line, row)
	}

	t, err := ParseTime(row[0])
	if err != nil {
		return market.Signal{}, false, fmt.Errorf("feed: line %d: %w", s.rows.line, err)
	}
	side, err := market.ParseSide(row[1])
	if err != nil {
		return market.Signal{}, false, fmt.Errorf("feed: line %d: %w", s.rows.line, err)
	}
	price, err := parseDecimal("price", row[2])
	if err != nil {
		return market.Signal{}, false, fmt.Errorf("feed: line %d: %w", s.rows.line, err)
	}
	return market.Signal{Time: t, Kind: side, Price: price}, true, nil
}

func (s *SignalReader) Close() error { return s.rows.close() }

// LoadSignals reads a whole stream. Order is kept as written; the runner
// sorts by time.
func LoadSignals(r io.Reader, symbol string) ([]market.Signal, error) {
	return collectSignals(NewSignalReader(r, symbol))
}

func LoadSignalsFile(path, symbol string) ([]market.Signal, error) {
	sr, err := OpenSignals(path, symbol)
	if err != nil {
		return nil, err
	}
	defer sr.Close()
	return collectSignals(sr)
}

func collectSignals(sr *SignalReader) ([]market.Signal, error) {
	var out []market.Signal
	for {
		s, ok, err := sr.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, s)
	}
}
