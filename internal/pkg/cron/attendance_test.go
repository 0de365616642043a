package cron

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/config"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/holiday"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/leave"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/worker"
)

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.AttendanceRecord // key worker|date
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.AttendanceRecord)}
}

func key(workerID string, date time.Time) string {
	return workerID + "|" + date.Format("2006-01-02")
}

func (f *fakeAttendanceRepo) Create(_ context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(record.WorkerID, record.Date)
	if _, ok := f.records[k]; ok {
		return attendance.AttendanceRecord{}, attendance.ErrRecordConflict
	}
	record.Version = 1
	f.records[k] = record
	return record, nil
}

func (f *fakeAttendanceRepo) GetByID(_ context.Context, id string) (attendance.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return attendance.AttendanceRecord{}, attendance.ErrRecordNotFound
}

func (f *fakeAttendanceRepo) GetByWorkerAndDate(_ context.Context, workerID string, date time.Time) (*attendance.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[key(workerID, date)]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeAttendanceRepo) Update(_ context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[key(record.WorkerID, record.Date)] = record
	return record, nil
}

func (f *fakeAttendanceRepo) Exists(_ context.Context, workerID string, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[key(workerID, date)]
	return ok, nil
}

func (f *fakeAttendanceRepo) ListByWorkerAndRange(_ context.Context, workerID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, r := range f.records {
		if r.WorkerID == workerID && !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByRange(_ context.Context, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.AttendanceRecord
	for _, r := range f.records {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]attendance.AttendanceRecord, error) {
	return f.ListByRange(ctx, date, date)
}

func (f *fakeAttendanceRepo) get(workerID string, date time.Time) (attendance.AttendanceRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[key(workerID, date)]
	return r, ok
}

type fakeWorkerRepo struct {
	workers []worker.Worker
}

func (f *fakeWorkerRepo) GetByID(_ context.Context, id string) (worker.Worker, error) {
	for _, w := range f.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return worker.Worker{}, worker.ErrWorkerNotFound
}

func (f *fakeWorkerRepo) GetActive(_ context.Context) ([]worker.Worker, error) {
	return f.workers, nil
}

type fakeLeaveRepo struct {
	intervals map[string][]leave.LeaveInterval // by worker
	err       map[string]error                 // per-worker failure injection
}

func (f *fakeLeaveRepo) ApprovedIntervals(_ context.Context, workerID string, _, _ time.Time) ([]leave.LeaveInterval, error) {
	if err, ok := f.err[workerID]; ok {
		return nil, err
	}
	return f.intervals[workerID], nil
}

type fakeHolidayRepo struct {
	holidays map[string]holiday.Holiday
}

func (f *fakeHolidayRepo) HolidayOn(_ context.Context, date time.Time) (*holiday.Holiday, error) {
	if h, ok := f.holidays[date.Format("2006-01-02")]; ok {
		return &h, nil
	}
	return nil, nil
}

func d(value string) time.Time {
	t, _ := time.Parse("2006-01-02", value)
	return t
}

func newJobs(
	attendanceRepo *fakeAttendanceRepo,
	workers []worker.Worker,
	leaveRepo *fakeLeaveRepo,
	holidayRepo *fakeHolidayRepo,
	nowLocal time.Time,
) *ReconciliationJobs {
	if leaveRepo == nil {
		leaveRepo = &fakeLeaveRepo{}
	}
	if holidayRepo == nil {
		holidayRepo = &fakeHolidayRepo{}
	}
	jobs := NewReconciliationJobs(
		attendanceRepo,
		&fakeWorkerRepo{workers: workers},
		leaveRepo,
		holidayRepo,
		config.WorkplaceConfig{
			Timezone:     "UTC",
			ShiftStart:   "10:00",
			GraceMinutes: 15,
		},
		config.ReconcileConfig{
			CloseoutHour:      0,
			CutoffHour:        0,
			LookbackDays:      1,
			BusinessHourStart: 9,
			BusinessHourEnd:   19,
			Interval:          time.Hour,
		},
	)
	jobs.now = func() time.Time { return nowLocal }
	return jobs
}

func TestDailyCloseout_MarksAbsentPastCutoff(t *testing.T) {
	repo := newFakeAttendanceRepo()
	// Tuesday 00:30; closeout covers Monday 2026-03-02.
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	rec, ok := repo.get("w-1", d("2026-03-02"))
	require.True(t, ok)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
}

func TestDailyCloseout_LeavesOpenDayBeforeCutoff(t *testing.T) {
	repo := newFakeAttendanceRepo()
	// Monday's cutoff is Tuesday 06:00; at 00:30 the day is still open and a
	// late checkout must not be pre-empted by an absent record.
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)
	jobs.policy.CutoffHour = 6

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	_, ok := repo.get("w-1", d("2026-03-02"))
	assert.False(t, ok)
}

func TestDailyCloseout_LeaveBeatsHoliday(t *testing.T) {
	repo := newFakeAttendanceRepo()
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	leaveRepo := &fakeLeaveRepo{intervals: map[string][]leave.LeaveInterval{
		"w-1": {{LeaveID: "lv-1", WorkerID: "w-1", StartDate: d("2026-03-01"), EndDate: d("2026-03-05")}},
	}}
	holidayRepo := &fakeHolidayRepo{holidays: map[string]holiday.Holiday{
		"2026-03-02": {ID: "h-1", Name: "Founders Day", Date: d("2026-03-02")},
	}}
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, leaveRepo, holidayRepo, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	rec, ok := repo.get("w-1", d("2026-03-02"))
	require.True(t, ok)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)
	require.NotNil(t, rec.LeaveID)
	assert.Equal(t, "lv-1", *rec.LeaveID)
}

func TestDailyCloseout_Holiday(t *testing.T) {
	repo := newFakeAttendanceRepo()
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	holidayRepo := &fakeHolidayRepo{holidays: map[string]holiday.Holiday{
		"2026-03-02": {ID: "h-1", Name: "Founders Day", Date: d("2026-03-02")},
	}}
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, holidayRepo, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	rec, ok := repo.get("w-1", d("2026-03-02"))
	require.True(t, ok)
	assert.Equal(t, attendance.StatusHoliday, rec.Status)
}

func TestDailyCloseout_Weekend(t *testing.T) {
	repo := newFakeAttendanceRepo()
	// Sunday 00:30; closeout covers Saturday 2026-03-07.
	now := time.Date(2026, 3, 8, 0, 30, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	rec, ok := repo.get("w-1", d("2026-03-07"))
	require.True(t, ok)
	assert.Equal(t, attendance.StatusWeekend, rec.Status)
}

func TestDailyCloseout_ExistingRecordUntouched(t *testing.T) {
	repo := newFakeAttendanceRepo()
	existing := attendance.AttendanceRecord{
		ID: "rec-1", WorkerID: "w-1", Date: d("2026-03-02"), Status: attendance.StatusPresent,
	}
	_, err := repo.Create(context.Background(), existing)
	require.NoError(t, err)

	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	rec, ok := repo.get("w-1", d("2026-03-02"))
	require.True(t, ok)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
}

func TestDailyCloseout_RepeatRunIsIdempotent(t *testing.T) {
	repo := newFakeAttendanceRepo()
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))
	first, ok := repo.get("w-1", d("2026-03-02"))
	require.True(t, ok)

	require.NoError(t, jobs.DailyCloseout(context.Background()))
	second, _ := repo.get("w-1", d("2026-03-02"))
	assert.Equal(t, first.ID, second.ID)
}

func TestDailyCloseout_SkipsOutsideCloseoutHour(t *testing.T) {
	repo := newFakeAttendanceRepo()
	now := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	_, ok := repo.get("w-1", d("2026-03-02"))
	assert.False(t, ok)
}

func TestDailyCloseout_WorkerFailureIsolated(t *testing.T) {
	repo := newFakeAttendanceRepo()
	now := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	leaveRepo := &fakeLeaveRepo{err: map[string]error{
		"w-bad": errors.New("leave store unavailable"),
	}}
	jobs := newJobs(repo, []worker.Worker{
		{ID: "w-bad", Status: worker.StatusActive},
		{ID: "w-ok", Status: worker.StatusActive},
	}, leaveRepo, nil, now)

	require.NoError(t, jobs.DailyCloseout(context.Background()))

	_, badCreated := repo.get("w-bad", d("2026-03-02"))
	assert.False(t, badCreated)
	rec, ok := repo.get("w-ok", d("2026-03-02"))
	require.True(t, ok)
	assert.Equal(t, attendance.StatusAbsent, rec.Status)
}

func TestFlagExceptions_NeverCreatesRecords(t *testing.T) {
	repo := newFakeAttendanceRepo()
	// Monday 11:00, in business hours, past shift start + grace.
	now := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.FlagExceptions(context.Background()))

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.records)
}

func TestFlagExceptions_SkipsOutsideBusinessHours(t *testing.T) {
	repo := newFakeAttendanceRepo()
	now := time.Date(2026, 3, 2, 22, 0, 0, 0, time.UTC)
	jobs := newJobs(repo, []worker.Worker{{ID: "w-1", Status: worker.StatusActive}}, nil, nil, now)

	require.NoError(t, jobs.FlagExceptions(context.Background()))
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.records)
}

func TestScheduler_SingleFlightSkipsOverlappingRuns(t *testing.T) {
	scheduler := NewScheduler()

	var executions int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	job := &Job{
		Name:     "slow",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			atomic.AddInt32(&executions, 1)
			started <- struct{}{}
			<-release
			return nil
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.executeJob(job)
	}()
	<-started

	// A second trigger while the first run is still in flight is a no-op.
	scheduler.executeJob(job)
	assert.Equal(t, int32(1), atomic.LoadInt32(&executions))

	close(release)
	wg.Wait()

	// Once the first run finishes the guard releases.
	scheduler.executeJob(job)
	assert.Equal(t, int32(2), atomic.LoadInt32(&executions))
}
