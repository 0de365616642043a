package worker

import "context"

type WorkerRepository interface {
	GetByID(ctx context.Context, id string) (Worker, error)

	// GetActive returns every worker the daily reconciliation must cover.
	GetActive(ctx context.Context) ([]Worker, error)
}
