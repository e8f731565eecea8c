package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rustyeddy/sigbt/backtest"
	"github.com/rustyeddy/sigbt/chart"
	"github.com/rustyeddy/sigbt/config"
	"github.com/rustyeddy/sigbt/feed"
	"github.com/rustyeddy/sigbt/journal"
	"github.com/rustyeddy/sigbt/market"
	"github.com/rustyeddy/sigbt/pkg/id"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay signals against a price series",
	Long: `Backtest follows BUY/SELL signals with a single long-only position,
charging fees and slippage on every fill. With --tp or --sl each entry is
followed by a scan of later prices for an automatic exit.

Flags override values from --config.

Example:
  sigbt backtest --prices btc.csv --signals signals.csv --tp 0.02 --sl 0.01`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

// runFlags are shared by backtest and sweep.
type runFlags struct {
	configPath  string
	prices      string
	signals     string
	symbol      string
	balance     string
	fee         string
	slip        string
	precision   int32
	rounding    string
	start       string
	end         string
	journalType string
	dbPath      string
}

func (f *runFlags) register(fs *pflag.FlagSet, journalType string) {
	fs.StringVarP(&f.configPath, "config", "c", "", "run config file (YAML or JSON)")
	fs.StringVarP(&f.prices, "prices", "p", "", "price CSV (time,price[,symbol])")
	fs.StringVarP(&f.signals, "signals", "s", "", "signal CSV (time,side,price[,symbol])")
	fs.StringVar(&f.symbol, "symbol", "", "keep only rows for this symbol")
	fs.StringVarP(&f.balance, "balance", "b", "1000", "initial cash balance")
	fs.StringVar(&f.fee, "fee", "0.001", "fee rate per fill (0.001 = 0.1%)")
	fs.StringVar(&f.slip, "slip", "0.001", "slippage rate per fill")
	fs.Int32Var(&f.precision, "precision", backtest.DefaultQtyPrecision, "fractional digits kept on entry quantity")
	fs.StringVar(&f.rounding, "rounding", string(backtest.RoundHalfEven), "quantity rounding (half_even, down, half_up)")
	fs.StringVar(&f.start, "start", "", "ignore data before this time")
	fs.StringVar(&f.end, "end", "", "ignore data after this time")
	fs.StringVar(&f.journalType, "journal", journalType, "journal type (none, sqlite, csv)")
	fs.StringVarP(&f.dbPath, "db", "d", "./sigbt.db", "path to SQLite journal DB")
}

// resolve loads --config, if given, and lays every explicitly set flag on
// top of it. Without a config file all flags apply.
func (f *runFlags) resolve(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	fromFile := f.configPath != ""
	if fromFile {
		loaded, err := config.LoadFromFile(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := func(name string, dst *string, v string) {
		if !fromFile || fs.Changed(name) {
			*dst = v
		}
	}
	set("prices", &cfg.Data.PricesFile, f.prices)
	set("signals", &cfg.Data.SignalsFile, f.signals)
	set("symbol", &cfg.Data.Symbol, f.symbol)
	set("balance", &cfg.Run.InitialBalance, f.balance)
	set("fee", &cfg.Run.FeeRate, f.fee)
	set("slip", &cfg.Run.SlippageRate, f.slip)
	set("rounding", &cfg.Run.Rounding, f.rounding)
	set("start", &cfg.Run.Start, f.start)
	set("end", &cfg.Run.End, f.end)
	set("db", &cfg.Journal.DBPath, f.dbPath)
	if !fromFile || fs.Changed("precision") {
		p := f.precision
		cfg.Run.QtyPrecision = &p
	}
	if !fromFile || fs.Changed("journal") {
		cfg.Journal.Type = f.journalType
		if cfg.Journal.Type == "none" {
			cfg.Journal.Type = ""
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	btFlags runFlags
	btTP    string
	btSL    string
	btOrg   string
	btSVG   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	btFlags.register(backtestCmd.Flags(), "sqlite")
	backtestCmd.Flags().StringVar(&btTP, "tp", "", "take-profit fraction above entry (0.02 = 2%)")
	backtestCmd.Flags().StringVar(&btSL, "sl", "", "stop-loss fraction below entry")
	backtestCmd.Flags().StringVar(&btOrg, "org", "", "also write an org-mode report to this file")
	backtestCmd.Flags().StringVar(&btSVG, "svg", "", "also write the equity curve as SVG to this file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	cfg, err := btFlags.resolve(fs)
	if err != nil {
		return err
	}
	if fs.Changed("tp") {
		cfg.Run.TakeProfitPct = btTP
	}
	if fs.Changed("sl") {
		cfg.Run.StopLossPct = btSL
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}

	prices, signals, err := loadInputs(cfg.Data)
	if err != nil {
		return err
	}

	log := logrus.WithField("symbol", cfg.Data.Symbol)
	runner := &backtest.Runner{Params: p, Logger: log}
	res, err := runner.Run(prices, signals)
	if err != nil {
		return err
	}
	sum := backtest.Summarize(res)

	out := cmd.OutOrStdout()
	backtest.PrintResult(out, res, sum)

	rec := journal.NewRunRecord(id.New(), cfg.Data.Symbol, cfg.Data.PricesFile, res)
	rec.Created = time.Now().UTC()

	if err := writeJournal(cmd.Context(), cfg.Journal, rec, res); err != nil {
		return err
	}
	if btOrg != "" {
		if err := writeFile(btOrg, func(w io.Writer) error {
			return journal.FormatRunOrg(w, rec, res.Trades)
		}); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
	}
	if btSVG != "" {
		if err := writeFile(btSVG, func(w io.Writer) error {
			return chart.EquitySVG(w, res.Equity(), fmt.Sprintf("%s %s", cfg.Data.Symbol, exitLabel(p)))
		}); err != nil {
			return fmt.Errorf("equity chart: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"run_id":     rec.RunID,
		"fills":      sum.Fills,
		"return_pct": sum.ReturnPct.String(),
	}).Info("backtest complete")
	return nil
}

func loadInputs(d config.DataConfig) ([]market.PricePoint, []market.Signal, error) {
	prices, err := feed.LoadPricesFile(d.PricesFile, d.Symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("load prices: %w", err)
	}
	signals, err := feed.LoadSignalsFile(d.SignalsFile, d.Symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("load signals: %w", err)
	}
	return prices, signals, nil
}

func writeJournal(ctx context.Context, jc config.JournalConfig, rec journal.RunRecord, res backtest.Result) error {
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()
		if err := j.SaveResult(ctx, rec, res); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	case "csv":
		if err := writeFile(jc.TradesFile, func(w io.Writer) error {
			return journal.WriteTradesCSV(w, res.Trades)
		}); err != nil {
			return fmt.Errorf("write trades: %w", err)
		}
		if err := writeFile(jc.EquityFile, func(w io.Writer) error {
			return journal.WriteEquityCSV(w, res.EquityPoints())
		}); err != nil {
			return fmt.Errorf("write equity: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exitLabel(p backtest.Params) string {
	tp, sl := "off", "off"
	if p.TakeProfitPct != nil {
		tp = p.TakeProfitPct.String()
	}
	if p.StopLossPct != nil {
		sl = p.StopLossPct.String()
	}
	return fmt.Sprintf("tp=%s sl=%s", tp, sl)
}
