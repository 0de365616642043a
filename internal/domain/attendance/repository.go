package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for the per-(worker, day)
// aggregate. The (worker_id, date) key is unique; Create relies on that for
// idempotence and Update is a compare-and-swap on Version so concurrent
// punch and idle-report writes never lose each other.
type AttendanceRepository interface {
	// Create inserts a new day aggregate. It returns ErrRecordConflict when a
	// record for the same (worker, day) key already exists.
	Create(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// GetByID retrieves a record by its id.
	GetByID(ctx context.Context, id string) (AttendanceRecord, error)

	// GetByWorkerAndDate retrieves the record for a worker on a local calendar
	// date. Returns nil without error when no record exists.
	GetByWorkerAndDate(ctx context.Context, workerID string, date time.Time) (*AttendanceRecord, error)

	// Update persists the record if its version still matches; the stored
	// version is bumped on success. Returns ErrRecordConflict on a lost race.
	Update(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)

	// Exists reports whether a record exists for the unique key.
	Exists(ctx context.Context, workerID string, date time.Time) (bool, error)

	// ListByWorkerAndRange returns a worker's records between two dates,
	// inclusive, ordered by date.
	ListByWorkerAndRange(ctx context.Context, workerID string, from, to time.Time) ([]AttendanceRecord, error)

	// ListByRange returns all records between two dates, inclusive.
	ListByRange(ctx context.Context, from, to time.Time) ([]AttendanceRecord, error)

	// ListByDate returns all records for a single local calendar date.
	ListByDate(ctx context.Context, date time.Time) ([]AttendanceRecord, error)
}
