package sheets

import (
	"context"

	"saldo/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter appends one folded period balance to an external report.
	// Rows are keyed by period, so re-exporting the same period overwrites
	// rather than duplicates.
	ReportWriter interface {
		AppendPeriodReport(ctx context.Context, pb core.PeriodBalance) (rowRef string, err error)
	}
)
