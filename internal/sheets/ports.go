package sheets

import (
	"context"

	"bilan/internal/core"
)

// Ports for outbound adapters.
type (
	// StatementExporter publishes a computed monthly statement to an
	// external spreadsheet.
	StatementExporter interface {
		ExportStatement(ctx context.Context, st core.MonthlyStatement) (rowRef string, err error)
	}
)
