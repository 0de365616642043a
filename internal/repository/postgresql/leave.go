package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/leave"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/database"
)

type leaveRepository struct {
	db *database.DB
}

// ApprovedIntervals implements leave.LeaveRepository. Only approved requests
// overlapping the window are returned; the approval workflow itself lives in
// another system.
func (l *leaveRepository) ApprovedIntervals(ctx context.Context, workerID string, from, to time.Time) ([]leave.LeaveInterval, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT id, worker_id, start_date, end_date, leave_type
		FROM leave_requests
		WHERE worker_id = $1
		  AND status = 'approved'
		  AND start_date <= $3
		  AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave intervals: %w", err)
	}
	defer rows.Close()

	var intervals []leave.LeaveInterval
	for rows.Next() {
		var iv leave.LeaveInterval
		if err := rows.Scan(&iv.LeaveID, &iv.WorkerID, &iv.StartDate, &iv.EndDate, &iv.LeaveType); err != nil {
			return nil, fmt.Errorf("failed to scan leave interval: %w", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave intervals: %w", err)
	}

	return intervals, nil
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepository{db: db}
}
