package response

import (
	"errors"
	"net/http"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/worker"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Conflicts with already-recorded state
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrDayFinalized):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrRecordConflict):
		Conflict(w, "The record was modified concurrently, please retry")

	// Sequence and input errors
	case errors.Is(err, attendance.ErrNotCheckedIn):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidDirection):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrInvalidTimestamp):
		BadRequest(w, err.Error(), nil)

	// Permission errors
	case errors.Is(err, attendance.ErrNotEligible):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrOverrideNotAllowed):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, worker.ErrWorkerNotFound):
		NotFound(w, "Worker not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
