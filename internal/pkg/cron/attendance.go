package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/config"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/holiday"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/leave"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/worker"
)

// ReconciliationJobs owns the two recurring attendance passes: the daily
// closeout that backfills elapsed days and the hourly exception flagger.
type ReconciliationJobs struct {
	attendanceRepo attendance.AttendanceRepository
	workerRepo     worker.WorkerRepository
	leaveRepo      leave.LeaveRepository
	holidayRepo    holiday.HolidayRepository
	workplace      config.WorkplaceConfig
	policy         config.ReconcileConfig

	// now is swappable for tests.
	now func() time.Time
}

func NewReconciliationJobs(
	attendanceRepo attendance.AttendanceRepository,
	workerRepo worker.WorkerRepository,
	leaveRepo leave.LeaveRepository,
	holidayRepo holiday.HolidayRepository,
	workplace config.WorkplaceConfig,
	policy config.ReconcileConfig,
) *ReconciliationJobs {
	return &ReconciliationJobs{
		attendanceRepo: attendanceRepo,
		workerRepo:     workerRepo,
		leaveRepo:      leaveRepo,
		holidayRepo:    holidayRepo,
		workplace:      workplace,
		policy:         policy,
		now:            time.Now,
	}
}

func (j *ReconciliationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("reconcile_daily_closeout", j.policy.Interval, j.DailyCloseout)
	scheduler.AddJob("flag_attendance_exceptions", j.policy.Interval, j.FlagExceptions)
}

// DailyCloseout backfills a record for every (active worker, elapsed day)
// pair inside the lookback window. Safe to run repeatedly for the same date:
// the existence check on the unique key makes every pass a no-op after the
// first.
func (j *ReconciliationJobs) DailyCloseout(ctx context.Context) error {
	loc := j.workplace.Location()
	nowLocal := j.now().In(loc)

	// The hourly tick only acts at the configured closeout hour.
	if nowLocal.Hour() != j.policy.CloseoutHour {
		return nil
	}

	slog.Info("Cron: Starting daily closeout", "lookback_days", j.policy.LookbackDays)

	workers, err := j.workerRepo.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active workers: %w", err)
	}

	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)

	created := 0
	for _, w := range workers {
		for back := 1; back <= j.policy.LookbackDays; back++ {
			date := today.AddDate(0, 0, -back)
			ok, err := j.closeoutDay(ctx, w, date, nowLocal)
			if err != nil {
				// One worker's bad day never aborts the rest of the batch.
				slog.Error("Cron: Closeout failed for worker",
					"worker_id", w.ID,
					"date", date.Format("2006-01-02"),
					"error", err)
				continue
			}
			if ok {
				created++
			}
		}
	}

	slog.Info("Cron: Daily closeout finished", "records_created", created)
	return nil
}

// closeoutDay resolves one (worker, date) pair. Returns true when a record
// was created. The priority order is deliberate: an existing record always
// wins, and leave beats holiday so a worker on leave during a holiday stays
// on-leave.
func (j *ReconciliationJobs) closeoutDay(ctx context.Context, w worker.Worker, date time.Time, nowLocal time.Time) (bool, error) {
	exists, err := j.attendanceRepo.Exists(ctx, w.ID, date)
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	if exists {
		return false, nil
	}

	intervals, err := j.leaveRepo.ApprovedIntervals(ctx, w.ID, date, date)
	if err != nil {
		return false, fmt.Errorf("failed to get leave intervals: %w", err)
	}
	for _, iv := range intervals {
		if iv.Covers(date) {
			leaveID := iv.LeaveID
			return j.createCloseoutRecord(ctx, w.ID, date, attendance.StatusOnLeave, &leaveID)
		}
	}

	hol, err := j.holidayRepo.HolidayOn(ctx, date)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday calendar: %w", err)
	}
	if hol != nil {
		return j.createCloseoutRecord(ctx, w.ID, date, attendance.StatusHoliday, nil)
	}

	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return j.createCloseoutRecord(ctx, w.ID, date, attendance.StatusWeekend, nil)
	}

	// Absent only once the day's cutoff has passed with no punches; until
	// then the day stays open and the worker may still punch in.
	loc := j.workplace.Location()
	cutoff := time.Date(date.Year(), date.Month(), date.Day(), j.policy.CutoffHour, 0, 0, 0, loc).AddDate(0, 0, 1)
	if nowLocal.After(cutoff) {
		return j.createCloseoutRecord(ctx, w.ID, date, attendance.StatusAbsent, nil)
	}

	return false, nil
}

func (j *ReconciliationJobs) createCloseoutRecord(ctx context.Context, workerID string, date time.Time, status attendance.Status, leaveID *string) (bool, error) {
	system := "reconciliation"
	_, err := j.attendanceRepo.Create(ctx, attendance.AttendanceRecord{
		ID:        uuid.NewString(),
		WorkerID:  workerID,
		Date:      date,
		Status:    status,
		LeaveID:   leaveID,
		CreatedBy: &system,
	})
	if err != nil {
		// Another instance closed the day between our existence check and the
		// insert; the unique key already holds a record, which is the goal.
		if errors.Is(err, attendance.ErrRecordConflict) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create closeout record: %w", err)
	}
	return true, nil
}

// FlagExceptions is the lightweight business-hours pass: it logs late
// arrivals and missing checkouts for the current day but never fabricates
// records.
func (j *ReconciliationJobs) FlagExceptions(ctx context.Context) error {
	loc := j.workplace.Location()
	nowLocal := j.now().In(loc)

	hour := nowLocal.Hour()
	if hour < j.policy.BusinessHourStart || hour >= j.policy.BusinessHourEnd {
		return nil
	}

	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, time.UTC)
	if wd := nowLocal.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil
	}

	workers, err := j.workerRepo.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active workers: %w", err)
	}

	records, err := j.attendanceRepo.ListByDate(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to list today's records: %w", err)
	}
	byWorker := make(map[string]attendance.AttendanceRecord, len(records))
	for _, rec := range records {
		byWorker[rec.WorkerID] = rec
	}

	lateFlags, missingCheckouts, notCheckedIn := 0, 0, 0
	for _, w := range workers {
		rec, ok := byWorker[w.ID]
		if !ok {
			// Past the grace window with no record at all.
			if nowLocal.After(j.graceDeadline(w, nowLocal)) {
				slog.Warn("Attendance exception: no check-in yet",
					"worker_id", w.ID, "date", today.Format("2006-01-02"))
				notCheckedIn++
			}
			continue
		}
		if rec.Status.IsTerminal() {
			continue
		}

		if rec.IsLate {
			slog.Warn("Attendance exception: late arrival",
				"worker_id", w.ID,
				"date", today.Format("2006-01-02"),
				"late_minutes", rec.LateMinutes)
			lateFlags++
		}

		if rec.HasPunch(attendance.DirectionIn) && !rec.HasPunch(attendance.DirectionOut) &&
			rec.FlexibleShiftEnd != nil && j.now().After(*rec.FlexibleShiftEnd) {
			slog.Warn("Attendance exception: missing checkout",
				"worker_id", w.ID,
				"date", today.Format("2006-01-02"),
				"shift_end", rec.FlexibleShiftEnd.Format(time.RFC3339))
			missingCheckouts++
		}
	}

	slog.Info("Cron: Exception flagging finished",
		"late", lateFlags, "missing_checkout", missingCheckouts, "not_checked_in", notCheckedIn)
	return nil
}

// graceDeadline resolves the instant after which a worker with no record
// counts as not-checked-in, using the worker's policy over the default.
func (j *ReconciliationJobs) graceDeadline(w worker.Worker, nowLocal time.Time) time.Time {
	loc := j.workplace.Location()

	shiftClock := j.workplace.ShiftStart
	if w.ShiftStart != nil && *w.ShiftStart != "" {
		shiftClock = *w.ShiftStart
	}
	clock, err := time.Parse("15:04", shiftClock)
	if err != nil {
		clock, _ = time.Parse("15:04", j.workplace.ShiftStart)
	}

	grace := j.workplace.GraceMinutes
	if w.GraceMinutes != nil {
		grace = *w.GraceMinutes
	}

	start := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(),
		clock.Hour(), clock.Minute(), 0, 0, loc)
	return start.Add(time.Duration(grace) * time.Minute)
}
