package leave

import (
	"context"
	"time"
)

// LeaveRepository - read-only view over approved leave requests.
type LeaveRepository interface {
	// ApprovedIntervals returns the approved leave windows overlapping
	// [from, to] for one worker.
	ApprovedIntervals(ctx context.Context, workerID string, from, to time.Time) ([]LeaveInterval, error)
}
