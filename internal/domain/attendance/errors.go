package attendance

import "errors"

// Attendance domain errors
var (
	// Punch/check-in errors
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrAlreadyCheckedOut = errors.New("you have already checked out today")
	ErrNotCheckedIn      = errors.New("you have not checked in yet")
	ErrNotEligible       = errors.New("not eligible from this location")
	ErrDayFinalized      = errors.New("this day has already been finalized")
	ErrInvalidDirection  = errors.New("punch direction must be IN or OUT")
	ErrInvalidTimestamp  = errors.New("punch timestamp is malformed")

	// General errors
	ErrRecordNotFound     = errors.New("attendance record not found")
	ErrRecordConflict     = errors.New("attendance record was modified concurrently")
	ErrOverrideNotAllowed = errors.New("insufficient role to override a finalized day")
)
