package attendance

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
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/worker"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/jwt"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/presence"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/validator"
)

// casRetries bounds the compare-and-swap loop. Two writers to the same
// (worker, day) key settle within a retry; more contention than that means
// something is wrong upstream.
const casRetries = 3

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	worker.WorkerRepository
	holiday.HolidayRepository
	presenceValidator *presence.Validator
	workplace         config.WorkplaceConfig
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	workerRepo worker.WorkerRepository,
	holidayRepo holiday.HolidayRepository,
	presenceValidator *presence.Validator,
	workplace config.WorkplaceConfig,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		WorkerRepository:     workerRepo,
		HolidayRepository:    holidayRepo,
		presenceValidator:    presenceValidator,
		workplace:            workplace,
	}
}

// RecordPunch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.AttendanceResponse, error) {
	return a.recordPunch(ctx, req, nil)
}

// recordPunch carries the shared punch path. The optional guard re-checks the
// logical sequence invariant against the freshly loaded record on every
// compare-and-swap attempt, so a concurrent writer cannot slip a duplicate
// check-in past a stale pre-check.
func (a *AttendanceServiceImpl) recordPunch(ctx context.Context, req attendance.RecordPunchRequest, guard func(*attendance.AttendanceRecord) error) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	// Punching into a finalized day is a manager-only action no matter what
	// the request body claims.
	if req.Override && req.ActorRole != jwt.RoleManager {
		return attendance.AttendanceResponse{}, attendance.ErrOverrideNotAllowed
	}

	w, err := a.WorkerRepository.GetByID(ctx, req.WorkerID)
	if err != nil {
		if errors.Is(err, worker.ErrWorkerNotFound) {
			return attendance.AttendanceResponse{}, worker.ErrWorkerNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get worker: %w", err)
	}

	var geo *presence.Geo
	if req.Geo != nil {
		geo = &presence.Geo{Latitude: req.Geo.Latitude, Longitude: req.Geo.Longitude}
	}
	if !a.presenceValidator.Eligible(req.SourceAddress, geo) {
		return attendance.AttendanceResponse{}, attendance.ErrNotEligible
	}

	punchTime := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, ok := validator.IsValidDateTime(req.Timestamp)
		if !ok {
			return attendance.AttendanceResponse{}, attendance.ErrInvalidTimestamp
		}
		punchTime = parsed.UTC()
	}

	punch := attendance.Punch{
		ID:            uuid.NewString(),
		Time:          punchTime,
		Direction:     req.Direction,
		Method:        req.Method,
		SourceAddress: req.SourceAddress,
	}

	rec, err := a.appendPunch(ctx, w, punch, req.Override, actorOrWorker(req.ActorID, req.WorkerID), guard)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	return mapRecordToResponse(rec, a.workplace.BreakThreshold), nil
}

// CheckIn implements attendance.AttendanceService. Exactly one logical
// check-in per day: a second one fails even if OUT punches exist between.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	return a.recordPunch(ctx, attendance.RecordPunchRequest{
		WorkerID:      req.WorkerID,
		Timestamp:     req.Timestamp,
		Direction:     attendance.DirectionIn,
		Method:        req.Method,
		SourceAddress: req.SourceAddress,
		Geo:           req.Geo,
	}, checkInGuard)
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	return a.recordPunch(ctx, attendance.RecordPunchRequest{
		WorkerID:      req.WorkerID,
		Timestamp:     req.Timestamp,
		Direction:     attendance.DirectionOut,
		Method:        req.Method,
		SourceAddress: req.SourceAddress,
		Geo:           req.Geo,
	}, checkOutGuard)
}

func checkInGuard(rec *attendance.AttendanceRecord) error {
	if rec != nil && rec.HasPunch(attendance.DirectionIn) {
		return attendance.ErrAlreadyCheckedIn
	}
	return nil
}

func checkOutGuard(rec *attendance.AttendanceRecord) error {
	if rec == nil || !rec.HasPunch(attendance.DirectionIn) {
		return attendance.ErrNotCheckedIn
	}
	if rec.HasPunch(attendance.DirectionOut) {
		return attendance.ErrAlreadyCheckedOut
	}
	return nil
}

// ReportIdleSession implements attendance.AttendanceService. The append is
// idempotent: a replayed session (same id, or same start instant) is
// acknowledged without a second write.
func (a *AttendanceServiceImpl) ReportIdleSession(ctx context.Context, req attendance.ReportIdleSessionRequest) (attendance.IdleReportResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.IdleReportResponse{}, err
	}

	start, _ := validator.IsValidDateTime(req.StartTime)
	end, _ := validator.IsValidDateTime(req.EndTime)
	start = start.UTC()
	end = end.UTC()

	w, err := a.WorkerRepository.GetByID(ctx, req.WorkerID)
	if err != nil {
		if errors.Is(err, worker.ErrWorkerNotFound) {
			return attendance.IdleReportResponse{}, worker.ErrWorkerNotFound
		}
		return attendance.IdleReportResponse{}, fmt.Errorf("failed to get worker: %w", err)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	session := attendance.IdleSession{
		ID:              sessionID,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: int(end.Sub(start).Minutes()),
		Reason:          req.Reason,
		WasWarned:       req.WasWarned,
		AutoLogout:      req.AutoLogout,
	}

	date := a.dateOf(start)

	var saved attendance.AttendanceRecord
	for attempt := 0; ; attempt++ {
		existing, err := a.AttendanceRepository.GetByWorkerAndDate(ctx, req.WorkerID, date)
		if err != nil {
			return attendance.IdleReportResponse{}, fmt.Errorf("failed to load record: %w", err)
		}

		var rec attendance.AttendanceRecord
		creating := existing == nil
		if creating {
			rec = a.newRecord(req.WorkerID, date, req.WorkerID)
		} else {
			rec = *existing
			if hasIdleSession(rec, session) {
				return attendance.IdleReportResponse{
					RecordID:                    rec.ID,
					AccumulatedIdleMinutesToday: rec.IdleMinutes(),
				}, nil
			}
		}

		rec.IdleSessions = append(rec.IdleSessions, session)
		day, err := a.dayPolicy(ctx, w, date)
		if err != nil {
			return attendance.IdleReportResponse{}, err
		}
		Recompute(&rec, day)

		saved, err = a.save(ctx, rec, creating)
		if err == nil {
			break
		}
		if errors.Is(err, attendance.ErrRecordConflict) && attempt < casRetries {
			continue
		}
		return attendance.IdleReportResponse{}, err
	}

	return attendance.IdleReportResponse{
		RecordID:                    saved.ID,
		AccumulatedIdleMinutesToday: saved.IdleMinutes(),
	}, nil
}

// ManualCorrection implements attendance.AttendanceService. It bypasses the
// punch sequence invariants entirely; role enforcement happens at the route.
func (a *AttendanceServiceImpl) ManualCorrection(ctx context.Context, req attendance.ManualCorrectionRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	for attempt := 0; ; attempt++ {
		rec, err := a.AttendanceRepository.GetByID(ctx, req.ID)
		if err != nil {
			if errors.Is(err, attendance.ErrRecordNotFound) {
				return attendance.AttendanceResponse{}, attendance.ErrRecordNotFound
			}
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to get record: %w", err)
		}

		w, err := a.WorkerRepository.GetByID(ctx, rec.WorkerID)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to get worker: %w", err)
		}

		if req.CheckInTime != nil && *req.CheckInTime != "" {
			t, err := a.parseCorrectionTime(*req.CheckInTime, rec.Date)
			if err != nil {
				return attendance.AttendanceResponse{}, err
			}
			rec.Punches = append(rec.Punches, attendance.Punch{
				ID:        uuid.NewString(),
				Time:      t,
				Direction: attendance.DirectionIn,
				Method:    "manual",
			})
		}
		if req.CheckOutTime != nil && *req.CheckOutTime != "" {
			t, err := a.parseCorrectionTime(*req.CheckOutTime, rec.Date)
			if err != nil {
				return attendance.AttendanceResponse{}, err
			}
			rec.Punches = append(rec.Punches, attendance.Punch{
				ID:        uuid.NewString(),
				Time:      t,
				Direction: attendance.DirectionOut,
				Method:    "manual",
			})
		}
		if req.LeaveID != nil {
			rec.LeaveID = req.LeaveID
		}

		day, err := a.dayPolicy(ctx, w, rec.Date)
		if err != nil {
			return attendance.AttendanceResponse{}, err
		}
		Recompute(&rec, day)

		// An explicit status wins over the derived one.
		if req.Status != nil {
			rec.Status = attendance.Status(*req.Status)
		}

		rec.IsManualEntry = true
		if req.ActorID != "" {
			actor := req.ActorID
			rec.UpdatedBy = &actor
		}

		saved, err := a.AttendanceRepository.Update(ctx, rec)
		if err == nil {
			return mapRecordToResponse(saved, a.workplace.BreakThreshold), nil
		}
		if errors.Is(err, attendance.ErrRecordConflict) && attempt < casRetries {
			continue
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update record: %w", err)
	}
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, workerID string, from, to string) ([]attendance.AttendanceResponse, error) {
	fromDate, ok := validator.IsValidDate(from)
	if !ok {
		return nil, validator.ValidationErrors{{Field: "start_date", Message: "start_date must be YYYY-MM-DD"}}
	}
	toDate, ok := validator.IsValidDate(to)
	if !ok {
		return nil, validator.ValidationErrors{{Field: "end_date", Message: "end_date must be YYYY-MM-DD"}}
	}

	records, err := a.AttendanceRepository.ListByWorkerAndRange(ctx, workerID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, mapRecordToResponse(rec, a.workplace.BreakThreshold))
	}
	return responses, nil
}

// appendPunch runs the load-append-recompute-save cycle under the
// compare-and-swap loop that serializes writers on the (worker, day) key.
func (a *AttendanceServiceImpl) appendPunch(ctx context.Context, w worker.Worker, punch attendance.Punch, override bool, actorID string, guard func(*attendance.AttendanceRecord) error) (attendance.AttendanceRecord, error) {
	date := a.dateOf(punch.Time)

	for attempt := 0; ; attempt++ {
		existing, err := a.AttendanceRepository.GetByWorkerAndDate(ctx, w.ID, date)
		if err != nil {
			return attendance.AttendanceRecord{}, fmt.Errorf("failed to load record: %w", err)
		}
		if guard != nil {
			if err := guard(existing); err != nil {
				return attendance.AttendanceRecord{}, err
			}
		}

		var rec attendance.AttendanceRecord
		creating := existing == nil
		if creating {
			rec = a.newRecord(w.ID, date, actorID)
		} else {
			rec = *existing
			if rec.Status.IsTerminal() && !override {
				return attendance.AttendanceRecord{}, attendance.ErrDayFinalized
			}
		}

		rec.Punches = append(rec.Punches, punch)
		day, err := a.dayPolicy(ctx, w, date)
		if err != nil {
			return attendance.AttendanceRecord{}, err
		}
		Recompute(&rec, day)
		if actorID != "" {
			actor := actorID
			rec.UpdatedBy = &actor
		}

		saved, err := a.save(ctx, rec, creating)
		if err == nil {
			return saved, nil
		}
		if errors.Is(err, attendance.ErrRecordConflict) && attempt < casRetries {
			slog.Debug("attendance write lost the race, retrying",
				"worker_id", w.ID, "date", date.Format("2006-01-02"), "attempt", attempt+1)
			continue
		}
		return attendance.AttendanceRecord{}, err
	}
}

func (a *AttendanceServiceImpl) save(ctx context.Context, rec attendance.AttendanceRecord, creating bool) (attendance.AttendanceRecord, error) {
	if creating {
		saved, err := a.AttendanceRepository.Create(ctx, rec)
		if err != nil {
			if errors.Is(err, attendance.ErrRecordConflict) {
				return attendance.AttendanceRecord{}, attendance.ErrRecordConflict
			}
			return attendance.AttendanceRecord{}, fmt.Errorf("failed to create record: %w", err)
		}
		return saved, nil
	}

	saved, err := a.AttendanceRepository.Update(ctx, rec)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordConflict) {
			return attendance.AttendanceRecord{}, attendance.ErrRecordConflict
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to update record: %w", err)
	}
	return saved, nil
}

func (a *AttendanceServiceImpl) newRecord(workerID string, date time.Time, actorID string) attendance.AttendanceRecord {
	rec := attendance.AttendanceRecord{
		ID:       uuid.NewString(),
		WorkerID: workerID,
		Date:     date,
		Status:   attendance.StatusNotMarked,
	}
	if actorID != "" {
		actor := actorID
		rec.CreatedBy = &actor
	}
	return rec
}

// dateOf buckets an instant into the workplace-local calendar day. The day
// is stored as midnight UTC of the local date so the unique key compares by
// value.
func (a *AttendanceServiceImpl) dateOf(t time.Time) time.Time {
	local := t.In(a.workplace.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// dayPolicy resolves the shift thresholds for one worker's calendar day,
// falling back to the workplace defaults where the worker has no policy.
func (a *AttendanceServiceImpl) dayPolicy(ctx context.Context, w worker.Worker, date time.Time) (DayPolicy, error) {
	loc := a.workplace.Location()

	shiftClock := a.workplace.ShiftStart
	if w.ShiftStart != nil && *w.ShiftStart != "" {
		shiftClock = *w.ShiftStart
	}
	clock, ok := validator.IsValidClockTime(shiftClock)
	if !ok {
		return DayPolicy{}, fmt.Errorf("invalid shift start %q for worker %s", shiftClock, w.ID)
	}

	grace := a.workplace.GraceMinutes
	if w.GraceMinutes != nil {
		grace = *w.GraceMinutes
	}
	duration := a.workplace.ShiftDuration
	if w.ShiftDuration != nil {
		duration = *w.ShiftDuration
	}

	shiftStart := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, loc)

	weekday := shiftStart.Weekday()
	weekend := weekday == time.Saturday || weekday == time.Sunday

	hol, err := a.HolidayRepository.HolidayOn(ctx, date)
	if err != nil {
		return DayPolicy{}, fmt.Errorf("failed to check holiday calendar: %w", err)
	}

	return DayPolicy{
		ShiftStart:       shiftStart,
		GraceMinutes:     grace,
		ShiftDuration:    duration,
		HalfDayThreshold: a.workplace.HalfDayThreshold,
		Weekend:          weekend,
		Holiday:          hol != nil,
	}, nil
}

// parseCorrectionTime accepts a full local datetime or a bare local clock
// time combined with the record's date.
func (a *AttendanceServiceImpl) parseCorrectionTime(value string, date time.Time) (time.Time, error) {
	loc := a.workplace.Location()

	if t, err := time.ParseInLocation("2006-01-02 15:04:05", value, loc); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("15:04:05", value, loc); err == nil {
		return time.Date(date.Year(), date.Month(), date.Day(),
			t.Hour(), t.Minute(), t.Second(), 0, loc).UTC(), nil
	}
	if t, err := time.ParseInLocation("15:04", value, loc); err == nil {
		return time.Date(date.Year(), date.Month(), date.Day(),
			t.Hour(), t.Minute(), 0, 0, loc).UTC(), nil
	}
	return time.Time{}, attendance.ErrInvalidTimestamp
}

func hasIdleSession(rec attendance.AttendanceRecord, session attendance.IdleSession) bool {
	for _, s := range rec.IdleSessions {
		if s.ID == session.ID || s.StartTime.Equal(session.StartTime) {
			return true
		}
	}
	return false
}

func actorOrWorker(actorID, workerID string) string {
	if actorID != "" {
		return actorID
	}
	return workerID
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}

// mapRecordToResponse converts an AttendanceRecord entity to AttendanceResponse
func mapRecordToResponse(rec attendance.AttendanceRecord, breakThreshold time.Duration) attendance.AttendanceResponse {
	punches := make([]attendance.PunchResponse, 0, len(rec.Punches))
	for _, p := range rec.Punches {
		punches = append(punches, attendance.PunchResponse{
			ID:            p.ID,
			Time:          p.Time.Format(time.RFC3339),
			Direction:     p.Direction,
			Method:        p.Method,
			SourceAddress: p.SourceAddress,
		})
	}

	sessions := make([]attendance.IdleSessionResponse, 0, len(rec.IdleSessions))
	for _, s := range rec.IdleSessions {
		sessions = append(sessions, attendance.IdleSessionResponse{
			ID:              s.ID,
			StartTime:       s.StartTime.Format(time.RFC3339),
			EndTime:         s.EndTime.Format(time.RFC3339),
			DurationMinutes: s.DurationMinutes,
			Reason:          s.Reason,
			WasWarned:       s.WasWarned,
			AutoLogout:      s.AutoLogout,
		})
	}

	var breaks []attendance.BreakIntervalResponse
	for _, b := range rec.BreakIntervals(breakThreshold) {
		breaks = append(breaks, attendance.BreakIntervalResponse{
			StartTime:       b.StartTime.Format(time.RFC3339),
			EndTime:         b.EndTime.Format(time.RFC3339),
			DurationMinutes: b.DurationMinutes,
		})
	}

	var flexEnd *string
	if rec.FlexibleShiftEnd != nil {
		v := rec.FlexibleShiftEnd.Format(time.RFC3339)
		flexEnd = &v
	}

	return attendance.AttendanceResponse{
		ID:               rec.ID,
		WorkerID:         rec.WorkerID,
		WorkerName:       rec.WorkerName,
		Date:             rec.Date.Format("2006-01-02"),
		Punches:          punches,
		CheckInTime:      timePtrToString(rec.CheckIn),
		CheckOutTime:     timePtrToString(rec.CheckOut),
		TotalHours:       rec.TotalHours,
		Status:           string(rec.Status),
		IsLate:           rec.IsLate,
		LateMinutes:      rec.LateMinutes,
		FlexibleShiftEnd: flexEnd,
		EarlyDeparture:   rec.EarlyDeparture,
		EarlyMinutes:     rec.EarlyMinutes,
		IdleSessions:     sessions,
		Breaks:           breaks,
		IdleMinutes:      rec.IdleMinutes(),
		LeaveID:          rec.LeaveID,
		IsManualEntry:    rec.IsManualEntry,
		CreatedAt:        rec.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:        rec.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
