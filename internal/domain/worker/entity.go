package worker

import "time"

// Worker is the directory entry the attendance core needs: identity plus the
// shift policy thresholds. Directory CRUD is owned elsewhere.
type Worker struct {
	ID       string
	FullName string
	Email    *string
	Status   string

	// Per-worker shift policy. Nil fields fall back to the workplace config.
	ShiftStart    *string        // "15:04"
	GraceMinutes  *int
	ShiftDuration *time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

const StatusActive = "active"
