package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

const attendanceColumns = `
	id, worker_id, date, punches, idle_sessions,
	check_in, check_out, total_hours, status,
	is_late, late_minutes, flexible_shift_end,
	early_departure, early_minutes,
	leave_id, is_manual_entry, created_by, updated_by,
	version, created_at, updated_at
`

// Create implements attendance.AttendanceRepository. The unique index on
// (worker_id, date) makes the insert idempotent: a lost race surfaces as
// ErrRecordConflict instead of a duplicate day.
func (a *attendanceRepository) Create(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, worker_id, date, punches, idle_sessions,
			check_in, check_out, total_hours, status,
			is_late, late_minutes, flexible_shift_end,
			early_departure, early_minutes,
			leave_id, is_manual_entry, created_by, updated_by,
			version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1
		)
		ON CONFLICT (worker_id, date) DO NOTHING
		RETURNING version, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.ID,
		record.WorkerID,
		record.Date,
		record.Punches,
		record.IdleSessions,
		record.CheckIn,
		record.CheckOut,
		record.TotalHours,
		record.Status,
		record.IsLate,
		record.LateMinutes,
		record.FlexibleShiftEnd,
		record.EarlyDeparture,
		record.EarlyMinutes,
		record.LeaveID,
		record.IsManualEntry,
		record.CreatedBy,
		record.UpdatedBy,
	).Scan(&record.Version, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.AttendanceRecord{}, attendance.ErrRecordConflict
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`

	record, err := scanAttendanceRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.AttendanceRecord{}, attendance.ErrRecordNotFound
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return record, nil
}

// GetByWorkerAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByWorkerAndDate(ctx context.Context, workerID string, date time.Time) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE worker_id = $1 AND date = $2 LIMIT 1`

	record, err := scanAttendanceRecord(q.QueryRow(ctx, query, workerID, date))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // no record for that day yet
		}
		return nil, fmt.Errorf("failed to get attendance record by worker and date: %w", err)
	}

	return &record, nil
}

// Update implements attendance.AttendanceRepository. The version predicate
// makes this a compare-and-swap: a concurrent writer that committed first
// leaves this update matching zero rows.
func (a *attendanceRepository) Update(ctx context.Context, record attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records SET
			punches = $1,
			idle_sessions = $2,
			check_in = $3,
			check_out = $4,
			total_hours = $5,
			status = $6,
			is_late = $7,
			late_minutes = $8,
			flexible_shift_end = $9,
			early_departure = $10,
			early_minutes = $11,
			leave_id = $12,
			is_manual_entry = $13,
			updated_by = $14,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $15 AND version = $16
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.Punches,
		record.IdleSessions,
		record.CheckIn,
		record.CheckOut,
		record.TotalHours,
		record.Status,
		record.IsLate,
		record.LateMinutes,
		record.FlexibleShiftEnd,
		record.EarlyDeparture,
		record.EarlyMinutes,
		record.LeaveID,
		record.IsManualEntry,
		record.UpdatedBy,
		record.ID,
		record.Version,
	).Scan(&record.Version, &record.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.AttendanceRecord{}, attendance.ErrRecordConflict
		}
		return attendance.AttendanceRecord{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return record, nil
}

// Exists implements attendance.AttendanceRepository.
func (a *attendanceRepository) Exists(ctx context.Context, workerID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT EXISTS(SELECT 1 FROM attendance_records WHERE worker_id = $1 AND date = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, workerID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check attendance record existence: %w", err)
	}

	return exists, nil
}

// ListByWorkerAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByWorkerAndRange(ctx context.Context, workerID string, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE worker_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	return collectAttendanceRecords(rows)
}

// ListByRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByRange(ctx context.Context, from, to time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, worker_id
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	return collectAttendanceRecords(rows)
}

// ListByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]attendance.AttendanceRecord, error) {
	return a.ListByRange(ctx, date, date)
}

func scanAttendanceRecord(row pgx.Row) (attendance.AttendanceRecord, error) {
	var rec attendance.AttendanceRecord
	err := row.Scan(
		&rec.ID, &rec.WorkerID, &rec.Date, &rec.Punches, &rec.IdleSessions,
		&rec.CheckIn, &rec.CheckOut, &rec.TotalHours, &rec.Status,
		&rec.IsLate, &rec.LateMinutes, &rec.FlexibleShiftEnd,
		&rec.EarlyDeparture, &rec.EarlyMinutes,
		&rec.LeaveID, &rec.IsManualEntry, &rec.CreatedBy, &rec.UpdatedBy,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func collectAttendanceRecords(rows pgx.Rows) ([]attendance.AttendanceRecord, error) {
	var records []attendance.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendanceRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}
	return records, nil
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
