package attendance

import (
	"context"
)

// AttendanceService defines business logic for punch recording and the
// derived-field aggregation around it.
type AttendanceService interface {
	// RecordPunch appends one presence event to the worker's day and
	// recomputes every derived field.
	RecordPunch(ctx context.Context, req RecordPunchRequest) (AttendanceResponse, error)

	// CheckIn records the single logical check-in of the day.
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut records the single logical check-out of the day.
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// ReportIdleSession appends a completed idle interval (idempotent) and
	// returns the worker's accumulated idle minutes for that day.
	ReportIdleSession(ctx context.Context, req ReportIdleSessionRequest) (IdleReportResponse, error)

	// ManualCorrection is the privileged override path. It bypasses the punch
	// sequence invariants but still triggers a full recomputation.
	ManualCorrection(ctx context.Context, req ManualCorrectionRequest) (AttendanceResponse, error)

	// GetMyAttendance retrieves a worker's records for a date range.
	GetMyAttendance(ctx context.Context, workerID string, from, to string) ([]AttendanceResponse, error)
}
