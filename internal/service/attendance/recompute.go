package attendance

import (
	"math"
	"sort"
	"time"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// DayPolicy is everything the derivation needs to know about one worker's
// calendar day: the shift thresholds resolved to concrete instants plus the
// day classification.
type DayPolicy struct {
	ShiftStart       time.Time // the day's scheduled start instant, workplace-local
	GraceMinutes     int
	ShiftDuration    time.Duration
	HalfDayThreshold time.Duration
	Weekend          bool
	Holiday          bool
}

// Recompute rederives every computed field from the punch list. It is called
// on every write so a record can never hold stale derivations.
//
// checkIn and checkOut are the absolute first and last punch of the day
// regardless of direction; this mirrors the recorded behavior the rest of
// the system depends on, even for odd sequences like OUT before IN.
func Recompute(rec *attendance.AttendanceRecord, day DayPolicy) {
	sort.SliceStable(rec.Punches, func(i, j int) bool {
		return rec.Punches[i].Time.Before(rec.Punches[j].Time)
	})

	rec.CheckIn = nil
	rec.CheckOut = nil
	rec.TotalHours = 0
	rec.IsLate = false
	rec.LateMinutes = 0
	rec.FlexibleShiftEnd = nil
	rec.EarlyDeparture = false
	rec.EarlyMinutes = 0

	if len(rec.Punches) == 0 {
		// Placeholder records (scheduler or manual) keep their status.
		return
	}

	first := rec.Punches[0].Time
	last := rec.Punches[len(rec.Punches)-1].Time
	rec.CheckIn = &first
	rec.CheckOut = &last
	rec.TotalHours = roundHours(last.Sub(first))

	firstIn := rec.FirstIn()

	// Weekend and holiday days never produce lateness, whatever the punch
	// times say.
	if firstIn != nil && !day.Weekend && !day.Holiday {
		graceLimit := day.ShiftStart.Add(time.Duration(day.GraceMinutes) * time.Minute)
		if firstIn.Time.After(graceLimit) {
			rec.IsLate = true
			diff := firstIn.Time.Sub(day.ShiftStart).Minutes()
			if diff > 0 {
				rec.LateMinutes = int(math.Floor(diff))
			}
		}
	}

	// The flexible shift end moves with the day's actual first IN punch.
	if firstIn != nil {
		flexEnd := firstIn.Time.Add(day.ShiftDuration)
		rec.FlexibleShiftEnd = &flexEnd

		if lastOut := rec.LastOut(); lastOut != nil && lastOut.Time.Before(flexEnd) {
			rec.EarlyDeparture = true
			rec.EarlyMinutes = int(flexEnd.Sub(lastOut.Time).Minutes())
		}
	}

	// A record finalized as on-leave or holiday keeps that status; override
	// punches accumulate underneath it.
	if rec.Status.IsTerminal() {
		return
	}

	switch {
	case rec.IsLate:
		rec.Status = attendance.StatusLate
	default:
		rec.Status = attendance.StatusPresent
	}

	// A checked-out day shorter than the half-day threshold counts as half
	// a day even when it started on time.
	if rec.HasPunch(attendance.DirectionIn) && rec.HasPunch(attendance.DirectionOut) &&
		rec.TotalHours > 0 && rec.TotalHours < day.HalfDayThreshold.Hours() {
		rec.Status = attendance.StatusHalfDay
	}
}

// roundHours converts a duration to hours rounded to two decimals, never
// negative.
func roundHours(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	hours := decimal.NewFromFloat(d.Hours()).Round(2)
	f, _ := hours.Float64()
	return f
}
