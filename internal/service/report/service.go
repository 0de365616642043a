package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/config"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/report"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/worker"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/validator"
)

type ReportServiceImpl struct {
	attendance.AttendanceRepository
	worker.WorkerRepository
	workplace config.WorkplaceConfig
}

func NewReportService(
	attendanceRepo attendance.AttendanceRepository,
	workerRepo worker.WorkerRepository,
	workplace config.WorkplaceConfig,
) report.ReportService {
	return &ReportServiceImpl{
		AttendanceRepository: attendanceRepo,
		WorkerRepository:     workerRepo,
		workplace:            workplace,
	}
}

// Summary implements report.ReportService. Weekend days never enter the
// counters, whatever status their records carry.
func (s *ReportServiceImpl) Summary(ctx context.Context, workerID string, filter report.RangeFilter) (report.SummaryResponse, error) {
	if err := filter.Validate(); err != nil {
		return report.SummaryResponse{}, err
	}
	from, _ := validator.IsValidDate(filter.StartDate)
	to, _ := validator.IsValidDate(filter.EndDate)

	records, err := s.AttendanceRepository.ListByWorkerAndRange(ctx, workerID, from, to)
	if err != nil {
		return report.SummaryResponse{}, fmt.Errorf("failed to list records: %w", err)
	}

	resp := report.SummaryResponse{
		WorkerID:  workerID,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	}

	total := decimal.Zero
	for _, rec := range records {
		if isWeekend(rec.Date) {
			continue
		}

		switch rec.Status {
		case attendance.StatusPresent, attendance.StatusLate, attendance.StatusHalfDay:
			resp.PresentDays++
		case attendance.StatusAbsent:
			resp.AbsentDays++
		}
		if rec.IsLate {
			resp.LateDays++
		}
		total = total.Add(decimal.NewFromFloat(rec.TotalHours))
	}

	resp.TotalHours, _ = total.Round(2).Float64()
	if resp.PresentDays > 0 {
		avg := total.Div(decimal.NewFromInt(int64(resp.PresentDays))).Round(2)
		resp.AverageHours, _ = avg.Float64()
	}

	return resp, nil
}

// TeamSummary implements report.ReportService.
func (s *ReportServiceImpl) TeamSummary(ctx context.Context, filter report.RangeFilter) (report.TeamSummaryResponse, error) {
	if err := filter.Validate(); err != nil {
		return report.TeamSummaryResponse{}, err
	}
	from, _ := validator.IsValidDate(filter.StartDate)
	to, _ := validator.IsValidDate(filter.EndDate)

	records, err := s.AttendanceRepository.ListByRange(ctx, from, to)
	if err != nil {
		return report.TeamSummaryResponse{}, fmt.Errorf("failed to list records: %w", err)
	}

	names := make(map[string]string)
	resp := report.TeamSummaryResponse{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		Days:      make(map[string][]report.TeamSummaryRow),
	}

	for _, rec := range records {
		name, ok := names[rec.WorkerID]
		if !ok {
			w, err := s.WorkerRepository.GetByID(ctx, rec.WorkerID)
			if err != nil {
				// A record pointing at a departed worker is excluded, not an
				// error; the rest of the team still renders.
				names[rec.WorkerID] = ""
				continue
			}
			name = w.FullName
			names[rec.WorkerID] = name
		}
		if name == "" {
			continue
		}

		dateKey := rec.Date.Format("2006-01-02")
		resp.Days[dateKey] = append(resp.Days[dateKey], report.TeamSummaryRow{
			WorkerID:     rec.WorkerID,
			WorkerName:   name,
			Date:         dateKey,
			Status:       string(rec.Status),
			CheckInTime:  formatTimePtr(rec.CheckIn),
			CheckOutTime: formatTimePtr(rec.CheckOut),
			TotalHours:   rec.TotalHours,
			IsLate:       rec.IsLate,
			LateMinutes:  rec.LateMinutes,
		})
	}

	return resp, nil
}

// Calendar implements report.ReportService. Every requested worker gets one
// cell per day; gaps render as absent, or weekend on Saturday and Sunday.
func (s *ReportServiceImpl) Calendar(ctx context.Context, filter report.RangeFilter, workerIDs []string) (report.CalendarResponse, error) {
	if err := filter.Validate(); err != nil {
		return report.CalendarResponse{}, err
	}
	from, _ := validator.IsValidDate(filter.StartDate)
	to, _ := validator.IsValidDate(filter.EndDate)

	if len(workerIDs) == 0 {
		workers, err := s.WorkerRepository.GetActive(ctx)
		if err != nil {
			return report.CalendarResponse{}, fmt.Errorf("failed to list workers: %w", err)
		}
		for _, w := range workers {
			workerIDs = append(workerIDs, w.ID)
		}
	}

	records, err := s.AttendanceRepository.ListByRange(ctx, from, to)
	if err != nil {
		return report.CalendarResponse{}, fmt.Errorf("failed to list records: %w", err)
	}

	// (worker, date) -> status for O(1) cell fills.
	statuses := make(map[string]attendance.Status, len(records))
	for _, rec := range records {
		statuses[rec.WorkerID+"|"+rec.Date.Format("2006-01-02")] = rec.Status
	}

	resp := report.CalendarResponse{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		Workers:   make(map[string][]report.CalendarCell, len(workerIDs)),
	}

	for _, id := range workerIDs {
		var cells []report.CalendarCell
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			dateKey := day.Format("2006-01-02")
			status, ok := statuses[id+"|"+dateKey]
			if !ok {
				if isWeekend(day) {
					status = attendance.StatusWeekend
				} else {
					status = attendance.StatusAbsent
				}
			}
			cells = append(cells, report.CalendarCell{Date: dateKey, Status: string(status)})
		}
		resp.Workers[id] = cells
	}

	return resp, nil
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format("2006-01-02 15:04:05")
	return &v
}
