package journal

import (
	"io"
	"text/template"
	"time"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/shopspring/decimal"
)

type orgView struct {
	RunRecord
	Summary backtest.Summary
	Trades  []backtest.Trade
}

var orgFuncs = template.FuncMap{
	"ts": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format("2006-01-02 15:04:05")
	},
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"pct": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "off"
		}
		return d.Decimal.Shift(2).String() + "%"
	},
	"add1": func(i int) int { return i + 1 },
}

var orgTmpl = template.Must(template.New("run").Funcs(orgFuncs).Parse(`* Backtest {{ .RunID }}
:PROPERTIES:
:SYMBOL: {{ .Symbol }}
:DATASET: {{ .Dataset }}
:CREATED: {{ ts .Created }}
:END:

** Period
- Start: {{ ts .Start }}
- End: {{ ts .End }}

** Parameters
- Fee rate: {{ .FeeRate }}
- Slippage rate: {{ .SlippageRate }}
- Quantity precision: {{ .QtyPrecision }} ({{ .Rounding }})
- Take profit: {{ pct .TakeProfitPct }}
- Stop loss: {{ pct .StopLossPct }}

** Results
| Start balance | End balance | Net P/L | Return % | Fees | Round trips | Win rate % | Max DD % |
|---------------+-------------+---------+----------+------+-------------+------------+----------|
| {{ money .InitialBalance }} | {{ money .FinalBalance }} | {{ money .Summary.NetPL }} | {{ .Summary.ReturnPct }} | {{ money .Summary.TotalFees }} | {{ .Summary.RoundTrips }} | {{ .Summary.WinRate }} | {{ .Summary.MaxDrawdownPct }} |
{{- if .OpenQuantity.IsPositive }}

Open position at end: {{ .OpenQuantity }} units (not in end balance)
{{- end }}
{{- if .DataGaps }}

Data gaps: {{ .DataGaps }}
{{- end }}

** Trades
| # | Side | Fill time | Price | Qty | Fee | Balance | Reason |
|---+------+-----------+-------+-----+-----+---------+--------|
{{- range $i, $t := .Trades }}
| {{ add1 $i }} | {{ $t.Side }} | {{ ts $t.FillTime }} | {{ $t.Price }} | {{ $t.Quantity }} | {{ $t.Fee }} | {{ money $t.Balance }} | {{ $t.Reason }} |
{{- end }}
`))

// FormatRunOrg renders a stored run as an org-mode section.
func FormatRunOrg(w io.Writer, rec RunRecord, trades []backtest.Trade) error {
	return orgTmpl.Execute(w, orgView{
		RunRecord: rec,
		Summary:   backtest.Summarize(rec.Result(trades)),
		Trades:    trades,
	})
}
