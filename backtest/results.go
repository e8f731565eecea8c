package backtest

import (
	"fmt"
	"io"
	"time"
)

// PrintResult writes a plain-text report of a run.
func PrintResult(w io.Writer, res Result, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", formatTime(res.Run.Start))
	fmt.Fprintf(w, "End:           %s\n", formatTime(res.Run.End))

	p := res.Params
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parameters")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Fee Rate:      %s\n", p.FeeRate)
	fmt.Fprintf(w, "Slippage Rate: %s\n", p.SlippageRate)
	fmt.Fprintf(w, "Qty Precision: %d (%s)\n", p.QtyPrecision, p.rounding())
	if p.TakeProfitPct != nil {
		fmt.Fprintf(w, "Take Profit:   %s\n", p.TakeProfitPct)
	}
	if p.StopLossPct != nil {
		fmt.Fprintf(w, "Stop Loss:     %s\n", p.StopLossPct)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Fills:         %d\n", s.Fills)
	fmt.Fprintf(w, "Round Trips:   %d\n", s.RoundTrips)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %s%%\n", s.WinRate.StringFixed(2))
	fmt.Fprintf(w, "Total Fees:    %s\n", s.TotalFees.StringFixed(8))
	if res.Ignored > 0 {
		fmt.Fprintf(w, "Ignored:       %d signals\n", res.Ignored)
	}
	if res.DataGaps > 0 {
		fmt.Fprintf(w, "Data Gaps:     %d entries without TP/SL exit\n", res.DataGaps)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %s\n", res.Run.InitialBalance.StringFixed(2))
	fmt.Fprintf(w, "End Balance:   %s\n", res.Run.FinalBalance.StringFixed(2))
	fmt.Fprintf(w, "Net P/L:       %s\n", s.NetPL.StringFixed(2))
	fmt.Fprintf(w, "Return:        %s%%\n", s.ReturnPct.StringFixed(2))
	if s.ProfitFactor.IsPositive() {
		fmt.Fprintf(w, "Profit Factor: %s\n", s.ProfitFactor.StringFixed(2))
	}
	if s.MaxDrawdownPct.IsPositive() {
		fmt.Fprintf(w, "Max Drawdown:  %s%%\n", s.MaxDrawdownPct.StringFixed(2))
	}

	if res.OpenPosition.Open() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Position (not included in End Balance)")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Quantity:      %s\n", res.OpenPosition.Quantity)
		fmt.Fprintf(w, "Entry Price:   %s\n", res.OpenPosition.EntryPrice)
		fmt.Fprintf(w, "Entry Time:    %s\n", formatTime(res.OpenPosition.EntryTime))
	}

	fmt.Fprintln(w)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
