package attendance

import (
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type RecordPunchRequest struct {
	WorkerID      string    `json:"worker_id"`
	Timestamp     string    `json:"timestamp"` // RFC3339; empty means "now"
	Direction     string    `json:"direction"`
	Method        string    `json:"method"`
	SourceAddress string    `json:"source_address"`
	Geo           *GeoPoint `json:"geo,omitempty"`

	// Override lets a manager punch into a day already finalized as on-leave
	// or holiday. The service rejects it for any other role.
	Override  bool   `json:"override,omitempty"`
	ActorID   string `json:"-"`
	ActorRole string `json:"-"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.WorkerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "worker_id",
			Message: "worker_id is required",
		})
	}

	if r.Direction != DirectionIn && r.Direction != DirectionOut {
		return ErrInvalidDirection
	}

	if r.Timestamp != "" {
		if _, ok := validator.IsValidDateTime(r.Timestamp); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "timestamp",
				Message: "timestamp must be RFC3339",
			})
		}
	}

	if validator.IsEmpty(r.SourceAddress) {
		errs = append(errs, validator.ValidationError{
			Field:   "source_address",
			Message: "source_address is required",
		})
	}

	if r.Geo != nil {
		if r.Geo.Latitude < -90 || r.Geo.Latitude > 90 {
			errs = append(errs, validator.ValidationError{
				Field:   "latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if r.Geo.Longitude < -180 || r.Geo.Longitude > 180 {
			errs = append(errs, validator.ValidationError{
				Field:   "longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckInRequest struct {
	WorkerID      string    `json:"worker_id"`
	Timestamp     string    `json:"timestamp,omitempty"`
	Method        string    `json:"method"`
	SourceAddress string    `json:"source_address"`
	Geo           *GeoPoint `json:"geo,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	punch := RecordPunchRequest{
		WorkerID:      r.WorkerID,
		Timestamp:     r.Timestamp,
		Direction:     DirectionIn,
		Method:        r.Method,
		SourceAddress: r.SourceAddress,
		Geo:           r.Geo,
	}
	return punch.Validate()
}

type CheckOutRequest struct {
	WorkerID      string    `json:"worker_id"`
	Timestamp     string    `json:"timestamp,omitempty"`
	Method        string    `json:"method"`
	SourceAddress string    `json:"source_address"`
	Geo           *GeoPoint `json:"geo,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	punch := RecordPunchRequest{
		WorkerID:      r.WorkerID,
		Timestamp:     r.Timestamp,
		Direction:     DirectionOut,
		Method:        r.Method,
		SourceAddress: r.SourceAddress,
		Geo:           r.Geo,
	}
	return punch.Validate()
}

type ReportIdleSessionRequest struct {
	WorkerID   string `json:"worker_id"`
	SessionID  string `json:"session_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Reason     string `json:"reason"`
	WasWarned  bool   `json:"was_warned"`
	AutoLogout bool   `json:"auto_logout"`
}

func (r *ReportIdleSessionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.WorkerID) {
		errs = append(errs, validator.ValidationError{
			Field:   "worker_id",
			Message: "worker_id is required",
		})
	}

	start, startOK := validator.IsValidDateTime(r.StartTime)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be RFC3339",
		})
	}

	end, endOK := validator.IsValidDateTime(r.EndTime)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be RFC3339",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must not be before start_time",
		})
	}

	validReasons := []string{ReasonActivityResumed, ReasonUserConfirmedWorking, ReasonIntentionalBreak, ReasonAutoLogout}
	if !validator.IsInSlice(r.Reason, validReasons) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "unknown idle session reason",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ManualCorrectionRequest struct {
	ID      string `json:"-"`
	ActorID string `json:"-"`

	// Manual check-in/check-out corrections become manual-method punches so
	// the derived fields keep flowing from the punch list.
	CheckInTime  *string `json:"check_in_time,omitempty"`  // "2006-01-02 15:04:05" or "15:04:05"
	CheckOutTime *string `json:"check_out_time,omitempty"` // same formats
	Status       *string `json:"status,omitempty"`
	LeaveID      *string `json:"leave_id,omitempty"`
}

func (r *ManualCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "record id is required",
		})
	}

	if r.CheckInTime == nil && r.CheckOutTime == nil && r.Status == nil && r.LeaveID == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "fields",
			Message: "at least one correction field is required",
		})
	}

	if r.Status != nil {
		validStatuses := []string{
			string(StatusPresent), string(StatusLate), string(StatusAbsent),
			string(StatusHalfDay), string(StatusOnLeave), string(StatusHoliday),
			string(StatusWeekend), string(StatusNotMarked),
		}
		if !validator.IsInSlice(*r.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "unknown attendance status",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PunchResponse struct {
	ID            string `json:"id"`
	Time          string `json:"time"`
	Direction     string `json:"direction"`
	Method        string `json:"method,omitempty"`
	SourceAddress string `json:"source_address,omitempty"`
}

type IdleSessionResponse struct {
	ID              string `json:"id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason"`
	WasWarned       bool   `json:"was_warned"`
	AutoLogout      bool   `json:"auto_logout"`
}

type BreakIntervalResponse struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type AttendanceResponse struct {
	ID               string                  `json:"id"`
	WorkerID         string                  `json:"worker_id"`
	WorkerName       *string                 `json:"worker_name,omitempty"`
	Date             string                  `json:"date"`
	Punches          []PunchResponse         `json:"punches"`
	CheckInTime      *string                 `json:"check_in_time,omitempty"`
	CheckOutTime     *string                 `json:"check_out_time,omitempty"`
	TotalHours       float64                 `json:"total_hours"`
	Status           string                  `json:"status"`
	IsLate           bool                    `json:"is_late"`
	LateMinutes      int                     `json:"late_minutes"`
	FlexibleShiftEnd *string                 `json:"flexible_shift_end,omitempty"`
	EarlyDeparture   bool                    `json:"early_departure"`
	EarlyMinutes     int                     `json:"early_minutes"`
	IdleSessions     []IdleSessionResponse   `json:"idle_sessions,omitempty"`
	Breaks           []BreakIntervalResponse `json:"breaks,omitempty"`
	IdleMinutes      int                     `json:"idle_minutes"`
	LeaveID          *string                 `json:"leave_id,omitempty"`
	IsManualEntry    bool                    `json:"is_manual_entry"`
	CreatedAt        string                  `json:"created_at"`
	UpdatedAt        string                  `json:"updated_at"`
}

type IdleReportResponse struct {
	RecordID                    string `json:"record_id"`
	AccumulatedIdleMinutesToday int    `json:"accumulated_idle_minutes_today"`
}
