package cmd

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/rustyeddy/sigbt/journal"
	"github.com/rustyeddy/sigbt/pkg/id"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a take-profit/stop-loss grid in parallel",
	Long: `Sweep runs one backtest per combination of --tp and --sl values over the
same prices and signals and prints a summary row for each, best return first.
Use "off" in a list to include runs without that exit.

Example:
  sigbt sweep -p btc.csv -s signals.csv --tp off,0.01,0.02 --sl off,0.01 --jobs 4`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	swFlags runFlags
	swTP    string
	swSL    string
	swJobs  int
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	swFlags.register(sweepCmd.Flags(), "none")
	sweepCmd.Flags().StringVar(&swTP, "tp", "off", "comma separated take-profit fractions")
	sweepCmd.Flags().StringVar(&swSL, "sl", "off", "comma separated stop-loss fractions")
	sweepCmd.Flags().IntVarP(&swJobs, "jobs", "j", runtime.NumCPU(), "runs executed at once")
}

// parseGrid reads a comma separated list of fractions. "off" yields nil.
func parseGrid(s string) ([]*decimal.Decimal, error) {
	var out []*decimal.Decimal
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "off") {
			out = append(out, nil)
			continue
		}
		v, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("bad grid value %q: %w", part, err)
		}
		out = append(out, &v)
	}
	if len(out) == 0 {
		out = append(out, nil)
	}
	return out, nil
}

func sweepJobs(base backtest.Params, tps, sls []*decimal.Decimal) []backtest.Job {
	var jobs []backtest.Job
	for _, tp := range tps {
		for _, sl := range sls {
			p := base
			p.TakeProfitPct = tp
			p.StopLossPct = sl
			jobs = append(jobs, backtest.Job{Name: exitLabel(p), Params: p})
		}
	}
	return jobs
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := swFlags.resolve(cmd.Flags())
	if err != nil {
		return err
	}
	base, err := cfg.Params()
	if err != nil {
		return err
	}
	tps, err := parseGrid(swTP)
	if err != nil {
		return fmt.Errorf("--tp: %w", err)
	}
	sls, err := parseGrid(swSL)
	if err != nil {
		return fmt.Errorf("--sl: %w", err)
	}

	prices, signals, err := loadInputs(cfg.Data)
	if err != nil {
		return err
	}

	jobs := sweepJobs(base, tps, sls)
	for i := range jobs {
		jobs[i].Prices = prices
		jobs[i].Signals = signals
	}

	log := logrus.WithField("symbol", cfg.Data.Symbol)
	results, err := backtest.RunAll(cmd.Context(), jobs, swJobs, log)
	if err != nil {
		return err
	}

	type row struct {
		name string
		sum  backtest.Summary
		res  backtest.Result
	}
	rows := make([]row, len(results))
	for i, res := range results {
		rows[i] = row{name: jobs[i].Name, sum: backtest.Summarize(res), res: res}
	}
	slices.SortStableFunc(rows, func(a, b row) int {
		return b.sum.ReturnPct.Cmp(a.sum.ReturnPct)
	})

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXITS\tEND BALANCE\tRETURN %\tTRIPS\tWIN %\tMAX DD %\tOPEN")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%t\n",
			r.name,
			r.res.Run.FinalBalance.StringFixed(2),
			r.sum.ReturnPct.StringFixed(2),
			r.sum.RoundTrips,
			r.sum.WinRate.StringFixed(2),
			r.sum.MaxDrawdownPct.StringFixed(2),
			r.res.OpenPosition.Open(),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if cfg.Journal.Type != "sqlite" {
		return nil
	}
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	now := time.Now().UTC()
	for _, r := range rows {
		rec := journal.NewRunRecord(id.NewAt(now), cfg.Data.Symbol, cfg.Data.PricesFile, r.res)
		rec.Created = now
		if err := j.SaveResult(cmd.Context(), rec, r.res); err != nil {
			return fmt.Errorf("save %s: %w", r.name, err)
		}
	}
	log.WithField("runs", len(rows)).Info("sweep saved to journal")
	return nil
}
