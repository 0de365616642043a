package worker

import "errors"

var (
	ErrWorkerNotFound = errors.New("worker profile not found")
)
