package report

import "context"

// ReportService defines the read-only derivations over stored attendance
// records. Nothing here mutates state.
type ReportService interface {
	// Summary aggregates one worker's attendance over non-weekend days.
	Summary(ctx context.Context, workerID string, filter RangeFilter) (SummaryResponse, error)

	// TeamSummary returns a per-date, per-worker breakdown. Records whose
	// worker no longer resolves are excluded, not errors.
	TeamSummary(ctx context.Context, filter RangeFilter) (TeamSummaryResponse, error)

	// Calendar renders a day-by-worker matrix for the given workers, or for
	// every active worker when workerIDs is empty.
	Calendar(ctx context.Context, filter RangeFilter, workerIDs []string) (CalendarResponse, error)
}
