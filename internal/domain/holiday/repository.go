package holiday

import (
	"context"
	"time"
)

// HolidayRepository - read-only holiday calendar lookups.
type HolidayRepository interface {
	// HolidayOn returns the holiday covering the given local calendar date,
	// or nil when the date is a working day.
	HolidayOn(ctx context.Context, date time.Time) (*Holiday, error)
}
