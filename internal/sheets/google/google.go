package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"bilan/internal/core"
	ports "bilan/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base tab name; the statement year is prefixed.
const DefaultSheetName = "Bilan"

var header = []any{
	"Mois", "Période", "Recette", "Coût Achat", "Bénéfice Brut",
	"Charges Journalières", "Charges Fixes", "Salaires", "Total Dépenses", "Bénéfice Net",
}

type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Exporter writes one row per month into a year-prefixed tab
// ("2024 Bilan"). Exporting a month twice overwrites its row.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

var _ ports.StatementExporter = (*Exporter)(nil)

// New creates an Exporter authenticated with service account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither inline JSON
// nor a file is given.
func New(ctx context.Context, opts Options) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = DefaultSheetName
	}

	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (e *Exporter) ExportStatement(ctx context.Context, st core.MonthlyStatement) (string, error) {
	if st.Month.IsZero() {
		return "", core.ErrInvalidMonth
	}
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(e.sheetBase, st.Month.Year())
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to read month column of %s: %w", sheet, err)
	}

	if len(resp.Values) == 0 {
		if err := e.write(ctx, sheet, 1, header); err != nil {
			return "", fmt.Errorf("failed to write header in %s: %w", sheet, err)
		}
		resp.Values = [][]any{{header[0]}}
	}

	row := findMonthRow(resp.Values, st.Month.Format(core.MonthLayout))
	if row == 0 {
		row = len(resp.Values) + 1
	}
	if err := e.write(ctx, sheet, row, statementRow(st)); err != nil {
		return "", fmt.Errorf("failed to write statement in %s: %w", sheet, err)
	}

	return fmt.Sprintf("%s!A%d:J%d", sheet, row, row), nil
}

func (e *Exporter) write(ctx context.Context, sheet string, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:J%d", sheet, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// statementRow renders a statement in header column order.
func statementRow(st core.MonthlyStatement) []any {
	return []any{
		st.Month.Format(core.MonthLayout),
		core.FormatMonthFR(st.Month),
		st.GrossRevenue.InexactFloat64(),
		st.CostOfGoods.InexactFloat64(),
		st.GrossProfit.InexactFloat64(),
		st.DailyChargesTotal.InexactFloat64(),
		st.FixedChargesTotal.InexactFloat64(),
		st.SalariesTotal.InexactFloat64(),
		st.TotalExpenses.InexactFloat64(),
		st.NetProfit.InexactFloat64(),
	}
}

// findMonthRow returns the 1-based row whose first cell is key, or 0.
func findMonthRow(values [][]any, key string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == key {
			return i + 1
		}
	}
	return 0
}

// yearPrefixedName returns "<year> <base>" unless base already starts
// with a four digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
