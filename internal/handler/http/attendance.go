package http

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http/middleware"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http/response"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/jwt"
)

type AttendanceHandler interface {
	RecordPunch(w http.ResponseWriter, r *http.Request)
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	ReportIdleSession(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	ManualCorrection(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// RecordPunch implements AttendanceHandler.
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	var req attendance.RecordPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if !callerMayActFor(r, req.WorkerID) {
		response.Forbidden(w, "Cannot act for another worker")
		return
	}
	applyCallerIdentity(r, &req.WorkerID, &req.SourceAddress)
	req.ActorID = middleware.WorkerID(r)
	req.ActorRole = middleware.Role(r)

	result, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded", result)
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if !callerMayActFor(r, req.WorkerID) {
		response.Forbidden(w, "Cannot act for another worker")
		return
	}
	applyCallerIdentity(r, &req.WorkerID, &req.SourceAddress)

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Check in successful", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if !callerMayActFor(r, req.WorkerID) {
		response.Forbidden(w, "Cannot act for another worker")
		return
	}
	applyCallerIdentity(r, &req.WorkerID, &req.SourceAddress)

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check out successful", result)
}

// ReportIdleSession implements AttendanceHandler.
func (h *attendanceHandlerImpl) ReportIdleSession(w http.ResponseWriter, r *http.Request) {
	var req attendance.ReportIdleSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if !callerMayActFor(r, req.WorkerID) {
		response.Forbidden(w, "Cannot act for another worker")
		return
	}
	if req.WorkerID == "" {
		req.WorkerID = middleware.WorkerID(r)
	}

	result, err := h.attendanceService.ReportIdleSession(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	workerID := middleware.WorkerID(r)
	if workerID == "" {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	from := r.URL.Query().Get("start_date")
	to := r.URL.Query().Get("end_date")

	result, err := h.attendanceService.GetMyAttendance(r.Context(), workerID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ManualCorrection implements AttendanceHandler.
func (h *attendanceHandlerImpl) ManualCorrection(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualCorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.ID = chi.URLParam(r, "id")
	req.ActorID = middleware.WorkerID(r)

	result, err := h.attendanceService.ManualCorrection(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Record corrected", result)
}

// callerMayActFor reports whether the authenticated caller may act on the
// given worker's records. Workers act only for themselves; supplying another
// worker's id requires the manager role.
func callerMayActFor(r *http.Request, workerID string) bool {
	if workerID == "" || workerID == middleware.WorkerID(r) {
		return true
	}
	return middleware.Role(r) == jwt.RoleManager
}

// applyCallerIdentity fills worker id and source address from the request
// when the body leaves them blank. A non-blank worker id has already been
// checked by callerMayActFor.
func applyCallerIdentity(r *http.Request, workerID *string, sourceAddress *string) {
	if *workerID == "" {
		*workerID = middleware.WorkerID(r)
	}
	if *sourceAddress == "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			*sourceAddress = host
		} else {
			*sourceAddress = r.RemoteAddr
		}
	}
}
