package attendance

import (
	"time"
)

// Status is the terminal or in-progress classification of a working day.
type Status string

const (
	StatusPresent   Status = "present"
	StatusLate      Status = "late"
	StatusAbsent    Status = "absent"
	StatusHalfDay   Status = "half_day"
	StatusOnLeave   Status = "on_leave"
	StatusHoliday   Status = "holiday"
	StatusWeekend   Status = "weekend"
	StatusNotMarked Status = "not_marked"
)

// IsTerminal reports whether the status was assigned outside the punch flow.
// A record in one of these states rejects ordinary punches without an
// explicit manual override.
func (s Status) IsTerminal() bool {
	return s == StatusOnLeave || s == StatusHoliday
}

// Punch directions.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Idle session reasons.
const (
	ReasonActivityResumed      = "activity_resumed"
	ReasonUserConfirmedWorking = "user_confirmed_working"
	ReasonIntentionalBreak     = "intentional_break"
	ReasonAutoLogout           = "auto_logout"
)

// Punch is a single presence event. Punches are immutable once written and
// only ever appended to a record.
type Punch struct {
	ID            string    `json:"id"`
	Time          time.Time `json:"time"`
	Direction     string    `json:"direction"`
	Method        string    `json:"method"`
	SourceAddress string    `json:"source_address"`
}

// IdleSession is a client-detected continuous interval of inactivity.
type IdleSession struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason"`
	WasWarned       bool      `json:"was_warned"`
	AutoLogout      bool      `json:"auto_logout"`
}

// BreakInterval is the derived view of an idle session long enough to count
// as a break.
type BreakInterval struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// AttendanceRecord is the one-per-(worker, day) aggregate. Punches and idle
// sessions are embedded so an idempotent existence-checked write on the
// unique key covers the whole day.
type AttendanceRecord struct {
	ID       string
	WorkerID string
	// Date is the calendar day in the workplace timezone, stored at midnight.
	Date time.Time

	Punches      []Punch
	IdleSessions []IdleSession

	// Derived fields, recomputed on every write.
	CheckIn          *time.Time
	CheckOut         *time.Time
	TotalHours       float64
	Status           Status
	IsLate           bool
	LateMinutes      int
	FlexibleShiftEnd *time.Time
	EarlyDeparture   bool
	EarlyMinutes     int

	LeaveID       *string
	IsManualEntry bool
	CreatedBy     *string
	UpdatedBy     *string

	// Version drives the compare-and-swap update; concurrent writers to the
	// same (worker, day) key retry instead of losing punches.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO
	WorkerName *string
}

// FirstIn returns the earliest IN-direction punch, or nil.
func (r *AttendanceRecord) FirstIn() *Punch {
	for i := range r.Punches {
		if r.Punches[i].Direction == DirectionIn {
			return &r.Punches[i]
		}
	}
	return nil
}

// LastOut returns the latest OUT-direction punch, or nil.
func (r *AttendanceRecord) LastOut() *Punch {
	for i := len(r.Punches) - 1; i >= 0; i-- {
		if r.Punches[i].Direction == DirectionOut {
			return &r.Punches[i]
		}
	}
	return nil
}

// HasPunch reports whether any punch with the given direction exists.
func (r *AttendanceRecord) HasPunch(direction string) bool {
	for i := range r.Punches {
		if r.Punches[i].Direction == direction {
			return true
		}
	}
	return false
}

// IdleMinutes sums the recorded idle sessions.
func (r *AttendanceRecord) IdleMinutes() int {
	total := 0
	for _, s := range r.IdleSessions {
		total += s.DurationMinutes
	}
	return total
}

// BreakIntervals derives the idle sessions long enough to count as breaks.
func (r *AttendanceRecord) BreakIntervals(threshold time.Duration) []BreakInterval {
	minMinutes := int(threshold.Minutes())
	var breaks []BreakInterval
	for _, s := range r.IdleSessions {
		if s.DurationMinutes >= minMinutes {
			breaks = append(breaks, BreakInterval{
				StartTime:       s.StartTime,
				EndTime:         s.EndTime,
				DurationMinutes: s.DurationMinutes,
			})
		}
	}
	return breaks
}
