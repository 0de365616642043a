package report

import (
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/validator"
)

// ========================================
// REPORT DTOs
// ========================================

type RangeFilter struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (f *RangeFilter) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(f.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be YYYY-MM-DD",
		})
	}

	end, endOK := validator.IsValidDate(f.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be YYYY-MM-DD",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// SummaryResponse aggregates one worker's range over non-weekend days only.
type SummaryResponse struct {
	WorkerID     string  `json:"worker_id"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	PresentDays  int     `json:"present_days"`
	AbsentDays   int     `json:"absent_days"`
	LateDays     int     `json:"late_days"`
	TotalHours   float64 `json:"total_hours"`
	AverageHours float64 `json:"average_hours"`
}

// TeamSummaryRow is one worker's day inside the team breakdown.
type TeamSummaryRow struct {
	WorkerID     string  `json:"worker_id"`
	WorkerName   string  `json:"worker_name"`
	Date         string  `json:"date"`
	Status       string  `json:"status"`
	CheckInTime  *string `json:"check_in_time,omitempty"`
	CheckOutTime *string `json:"check_out_time,omitempty"`
	TotalHours   float64 `json:"total_hours"`
	IsLate       bool    `json:"is_late"`
	LateMinutes  int     `json:"late_minutes"`
}

type TeamSummaryResponse struct {
	StartDate string                      `json:"start_date"`
	EndDate   string                      `json:"end_date"`
	Days      map[string][]TeamSummaryRow `json:"days"` // date -> rows
}

// CalendarCell is the display status of one (day, worker) cell. Days without
// a stored record render as absent, or weekend on Saturday/Sunday.
type CalendarCell struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type CalendarResponse struct {
	StartDate string                    `json:"start_date"`
	EndDate   string                    `json:"end_date"`
	Workers   map[string][]CalendarCell `json:"workers"` // workerID -> one cell per day
}
