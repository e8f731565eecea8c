package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rustyeddy/sigbt/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the backtest journal",
	Long: `Query and export runs stored in the SQLite journal.

Subcommands:
  list    - List the most recent runs
  show    - Print one run as an org-mode section
  export  - Write the trades and equity curve of a run as CSV

Examples:
  sigbt journal list -n 20
  sigbt journal show 01JA2B3C4D5E6F7G8H9JKMNPQR
  sigbt journal export 01JA2B3C4D5E6F7G8H9JKMNPQR --trades t.csv --equity e.csv`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run as org-mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export trades and equity of a run as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalExport,
}

var (
	journalDBPath string
	journalLimit  int
	exportTrades  string
	exportEquity  string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalExportCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./sigbt.db", "path to SQLite journal DB")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 10, "number of runs to list (0 for all)")
	journalExportCmd.Flags().StringVar(&exportTrades, "trades", "", "trades CSV path (default stdout)")
	journalExportCmd.Flags().StringVar(&exportEquity, "equity", "", "equity CSV path")
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSYMBOL\tSTART\tEND\tFINAL BALANCE\tTRADES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.RunID, r.Symbol,
			r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"),
			r.FinalBalance.StringFixed(2), r.Trades)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTrades(cmd.Context(), rec.RunID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	return journal.FormatRunOrg(cmd.OutOrStdout(), rec, trades)
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	rec, err := j.GetRun(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTrades(ctx, rec.RunID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	writeTrades := func(w io.Writer) error { return journal.WriteTradesCSV(w, trades) }
	if exportTrades == "" {
		err = writeTrades(cmd.OutOrStdout())
	} else {
		err = writeFile(exportTrades, writeTrades)
	}
	if err != nil {
		return fmt.Errorf("write trades: %w", err)
	}

	if exportEquity == "" {
		return nil
	}
	equity, err := j.ListEquity(ctx, rec.RunID)
	if err != nil {
		return fmt.Errorf("list equity: %w", err)
	}
	return writeFile(exportEquity, func(w io.Writer) error {
		return journal.WriteEquityCSV(w, equity)
	})
}
