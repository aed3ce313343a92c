// Command bilan-report prints or exports ledger reports from the configured
// backend.
//
//	bilan-report statement -month 2024-03 [-csv out.csv]
//	bilan-report history -limit 30 [-csv out.csv]
//	bilan-report daily -date 2024-03-10
//	bilan-report snapshot -month 2024-03
//	bilan-report schema
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"bilan/internal/cli"
	"bilan/internal/config"
	"bilan/internal/core"
	"bilan/internal/export"
	"bilan/internal/ledger"
	"bilan/internal/log"
	"bilan/internal/services"
	"bilan/internal/storage"
	"bilan/internal/worker"
)

var errUsage = errors.New("usage: bilan-report <statement|history|daily|snapshot|schema> [flags]")

// app is what the subcommands run against.
type app struct {
	cfg     *config.Config
	store   ledger.Store
	totals  *services.TotalsService
	history *services.HistoryService
	logger  *log.Logger
	today   func() core.Date
}

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("warn"))
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentReport)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	a := &app{
		cfg:     cfg,
		store:   result.Store,
		totals:  services.NewTotalsService(result.Store, logger),
		history: services.NewHistoryService(result.Store, cfg.HistoryDays),
		logger:  logger,
		today:   core.Today,
	}

	err := a.run(ctx, os.Args[1:], os.Stdout)
	if result.Cleanup != nil {
		if cerr := result.Cleanup(); cerr != nil {
			logger.Warn("Backend cleanup error", log.FieldError, cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "statement":
		return a.statement(ctx, rest, out)
	case "history":
		return a.historyCmd(ctx, rest, out)
	case "daily":
		return a.daily(ctx, rest, out)
	case "snapshot":
		return a.snapshot(ctx, rest, out)
	case "schema":
		return a.schema(out)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

// openOutput returns out, or a created file when path is set.
func openOutput(path string, out io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func (a *app) statement(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("statement", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	month := fs.String("month", "", "month as YYYY-MM (default: current month)")
	csvPath := fs.String("csv", "", "write the report CSV to this file ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := core.MonthStart(a.today())
	if *month != "" {
		d, err := core.ParseMonth(*month)
		if err != nil {
			return err
		}
		day = d
	}

	if *csvPath != "" {
		rep, err := a.totals.MonthlyReport(ctx, day)
		if err != nil {
			return err
		}
		w, closeFn, err := openOutput(*csvPath, out)
		if err != nil {
			return err
		}
		if err := export.WriteReportCSV(w, a.cfg.ReportTitle, rep, a.cfg.Currency); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	}

	st, err := a.totals.MonthlyStatement(ctx, day)
	if err != nil {
		return err
	}
	a.printStatement(out, st)
	return nil
}

func (a *app) printStatement(out io.Writer, st core.MonthlyStatement) {
	cur := a.cfg.Currency
	fmt.Fprintf(out, "%s (%s - %s)\n", core.FormatMonthFR(st.Month), core.FormatDateFR(st.FirstDay), core.FormatDateFR(st.LastDay))
	rows := []struct {
		label string
		value string
	}{
		{"Recette", core.FormatCurrency(st.GrossRevenue, cur)},
		{"Coût Achat", core.FormatCurrency(st.CostOfGoods, cur)},
		{"Bénéfice Brut", core.FormatCurrency(st.GrossProfit, cur)},
		{"Charges Journalières", core.FormatCurrency(st.DailyChargesTotal, cur)},
		{"Charges Fixes", core.FormatCurrency(st.FixedChargesTotal, cur)},
		{"Salaires", core.FormatCurrency(st.SalariesTotal, cur)},
		{"Total Dépenses", core.FormatCurrency(st.TotalExpenses, cur)},
		{"Bénéfice Net", core.FormatCurrency(st.NetProfit, cur)},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-22s %s\n", r.label, r.value)
	}
}

func (a *app) historyCmd(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 0, "number of days (default: HISTORY_DAYS)")
	csvPath := fs.String("csv", "", "write the history CSV to this file ('-' for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *csvPath != "" {
		rows, err := a.history.Collect(ctx, *limit)
		if err != nil {
			return err
		}
		w, closeFn, err := openOutput(*csvPath, out)
		if err != nil {
			return err
		}
		if err := export.WriteHistoryCSV(w, a.cfg.ReportTitle, rows); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	}

	cur := a.cfg.Currency
	n := 0
	for row, err := range a.history.Rows(ctx, *limit) {
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s  %s\n",
			core.FormatDateFR(row.Date),
			core.FormatCurrency(row.GrossRevenue, cur),
			core.FormatCurrency(row.NetProfit, cur))
		n++
	}
	if n == 0 {
		fmt.Fprintln(out, "aucune donnée")
	}
	return nil
}

func (a *app) daily(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	date := fs.String("date", "", "day as YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	day := a.today()
	if *date != "" {
		d, err := core.ParseDate(*date)
		if err != nil {
			return err
		}
		day = d
	}
	t, err := a.totals.DailyTotalsFromStore(ctx, day)
	if err != nil {
		return err
	}
	cur := a.cfg.Currency
	fmt.Fprintf(out, "%s\n", core.FormatDateFR(t.Date))
	fmt.Fprintf(out, "  %-22s %s\n", "Recette", core.FormatCurrency(t.GrossRevenue, cur))
	fmt.Fprintf(out, "  %-22s %s\n", "Bénéfice Brut", core.FormatCurrency(t.GrossProfit, cur))
	fmt.Fprintf(out, "  %-22s %s\n", "Charges Journalières", core.FormatCurrency(t.DailyChargesTotal, cur))
	fmt.Fprintf(out, "  %-22s %s\n", "Coût Mensuel Amorti", core.FormatCurrency(t.AmortizedMonthlyCost, cur))
	fmt.Fprintf(out, "  %-22s %s\n", "Bénéfice Net", core.FormatCurrency(t.NetProfit, cur))
	return nil
}

// snapshot computes and persists one month without exporting it.
func (a *app) snapshot(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	month := fs.String("month", "", "month as YYYY-MM (default: current month)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	day := core.MonthStart(a.today())
	if *month != "" {
		d, err := core.ParseMonth(*month)
		if err != nil {
			return err
		}
		day = d
	}
	w := worker.NewStatementWorker(a.totals, a.store, nil, a.logger)
	st, err := w.Snapshot(ctx, day)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot saved for %s\n", st.Month.Format(core.MonthLayout))
	a.printStatement(out, st)
	return nil
}

func (a *app) schema(out io.Writer) error {
	if !strings.EqualFold(a.cfg.DataBackend, "sqlite") {
		return fmt.Errorf("schema: backend %q has no migrations", a.cfg.DataBackend)
	}
	version, dirty, err := storage.SchemaVersion(a.cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d (dirty=%t) at %s\n", version, dirty, a.cfg.SQLiteDBPath)
	return nil
}
