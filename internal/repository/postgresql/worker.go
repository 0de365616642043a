package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/worker"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/database"
)

type workerRepository struct {
	db *database.DB
}

// GetByID implements worker.WorkerRepository.
func (w *workerRepository) GetByID(ctx context.Context, id string) (worker.Worker, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT id, full_name, email, status,
			   shift_start, grace_minutes, shift_duration_minutes,
			   created_at, updated_at
		FROM workers
		WHERE id = $1
	`

	wk, err := scanWorker(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return worker.Worker{}, worker.ErrWorkerNotFound
		}
		return worker.Worker{}, fmt.Errorf("failed to get worker: %w", err)
	}

	return wk, nil
}

// GetActive implements worker.WorkerRepository.
func (w *workerRepository) GetActive(ctx context.Context) ([]worker.Worker, error) {
	q := GetQuerier(ctx, w.db)

	query := `
		SELECT id, full_name, email, status,
			   shift_start, grace_minutes, shift_duration_minutes,
			   created_at, updated_at
		FROM workers
		WHERE status = $1
		ORDER BY full_name
	`

	rows, err := q.Query(ctx, query, worker.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active workers: %w", err)
	}
	defer rows.Close()

	var workers []worker.Worker
	for rows.Next() {
		wk, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, wk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workers: %w", err)
	}

	return workers, nil
}

func scanWorker(row pgx.Row) (worker.Worker, error) {
	var wk worker.Worker
	var shiftMinutes *int64

	err := row.Scan(
		&wk.ID, &wk.FullName, &wk.Email, &wk.Status,
		&wk.ShiftStart, &wk.GraceMinutes, &shiftMinutes,
		&wk.CreatedAt, &wk.UpdatedAt,
	)
	if err != nil {
		return worker.Worker{}, err
	}

	if shiftMinutes != nil {
		d := time.Duration(*shiftMinutes) * time.Minute
		wk.ShiftDuration = &d
	}

	return wk, nil
}

func NewWorkerRepository(db *database.DB) worker.WorkerRepository {
	return &workerRepository{db: db}
}
