package leave

import "time"

// LeaveInterval is an approved leave window consumed by the reconciliation
// scheduler. Approval itself happens in an external workflow; only the
// approved outcome is read here.
type LeaveInterval struct {
	LeaveID   string
	WorkerID  string
	StartDate time.Time
	EndDate   time.Time
	LeaveType string
}

// Covers reports whether the interval includes the given calendar date.
func (l LeaveInterval) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
