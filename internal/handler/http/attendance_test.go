package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/attendance"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/report"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http/response"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/pkg/jwt"
)

type stubAttendanceService struct {
	lastPunch      attendance.RecordPunchRequest
	lastCheckIn    attendance.CheckInRequest
	lastCorrection attendance.ManualCorrectionRequest
	err            error
}

func (s *stubAttendanceService) RecordPunch(_ context.Context, req attendance.RecordPunchRequest) (attendance.AttendanceResponse, error) {
	s.lastPunch = req
	return attendance.AttendanceResponse{WorkerID: req.WorkerID}, s.err
}

func (s *stubAttendanceService) CheckIn(_ context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	s.lastCheckIn = req
	return attendance.AttendanceResponse{WorkerID: req.WorkerID, Status: string(attendance.StatusPresent)}, s.err
}

func (s *stubAttendanceService) CheckOut(_ context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{WorkerID: req.WorkerID}, s.err
}

func (s *stubAttendanceService) ReportIdleSession(_ context.Context, req attendance.ReportIdleSessionRequest) (attendance.IdleReportResponse, error) {
	return attendance.IdleReportResponse{RecordID: "rec-1", AccumulatedIdleMinutesToday: 30}, s.err
}

func (s *stubAttendanceService) ManualCorrection(_ context.Context, req attendance.ManualCorrectionRequest) (attendance.AttendanceResponse, error) {
	s.lastCorrection = req
	return attendance.AttendanceResponse{ID: req.ID}, s.err
}

func (s *stubAttendanceService) GetMyAttendance(_ context.Context, workerID string, _, _ string) ([]attendance.AttendanceResponse, error) {
	return []attendance.AttendanceResponse{{WorkerID: workerID}}, s.err
}

type stubReportService struct{}

func (s *stubReportService) Summary(_ context.Context, workerID string, filter report.RangeFilter) (report.SummaryResponse, error) {
	return report.SummaryResponse{WorkerID: workerID, StartDate: filter.StartDate, EndDate: filter.EndDate}, nil
}

func (s *stubReportService) TeamSummary(_ context.Context, filter report.RangeFilter) (report.TeamSummaryResponse, error) {
	return report.TeamSummaryResponse{StartDate: filter.StartDate, EndDate: filter.EndDate}, nil
}

func (s *stubReportService) Calendar(_ context.Context, filter report.RangeFilter, _ []string) (report.CalendarResponse, error) {
	return report.CalendarResponse{StartDate: filter.StartDate, EndDate: filter.EndDate}, nil
}

func newTestRouter(t *testing.T) (http.Handler, jwt.Service, *stubAttendanceService) {
	t.Helper()
	jwtService := jwt.NewJWTService("test-secret", "1h")
	svc := &stubAttendanceService{}
	router := NewRouter(jwtService, NewAttendanceHandler(svc), NewReportHandler(&stubReportService{}))
	return router, jwtService, svc
}

func bearer(t *testing.T, jwtService jwt.Service, workerID, role string) string {
	t.Helper()
	token, _, err := jwtService.GenerateAccessToken(workerID, "worker@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestCheckInRoute_RequiresAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckInRoute_FillsIdentityFromToken(t *testing.T) {
	router, jwtService, svc := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{"method": "web"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", bytes.NewBuffer(body))
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	req.RemoteAddr = "10.1.2.3:51234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "w-1", svc.lastCheckIn.WorkerID)
	assert.Equal(t, "10.1.2.3", svc.lastCheckIn.SourceAddress)

	var envelope response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
}

func TestPunchRoute_PassesCallerRole(t *testing.T) {
	router, jwtService, svc := newTestRouter(t)

	body := bytes.NewBufferString(`{"direction":"IN","method":"web"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", body)
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	req.RemoteAddr = "10.1.2.3:51234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "w-1", svc.lastPunch.WorkerID)
	assert.Equal(t, "w-1", svc.lastPunch.ActorID)
	assert.Equal(t, jwt.RoleWorker, svc.lastPunch.ActorRole)
}

func TestPunchRoute_ForeignWorkerForbiddenForWorker(t *testing.T) {
	router, jwtService, svc := newTestRouter(t)

	body := bytes.NewBufferString(`{"worker_id":"w-2","direction":"IN","method":"web"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", body)
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.lastPunch.WorkerID)
}

func TestPunchRoute_ManagerActsForWorker(t *testing.T) {
	router, jwtService, svc := newTestRouter(t)

	body := bytes.NewBufferString(`{"worker_id":"w-2","direction":"IN","method":"web"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", body)
	req.Header.Set("Authorization", bearer(t, jwtService, "mgr-1", jwt.RoleManager))
	req.RemoteAddr = "10.1.2.3:51234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "w-2", svc.lastPunch.WorkerID)
	assert.Equal(t, "mgr-1", svc.lastPunch.ActorID)
	assert.Equal(t, jwt.RoleManager, svc.lastPunch.ActorRole)
}

func TestCheckInRoute_ForeignWorkerForbiddenForWorker(t *testing.T) {
	router, jwtService, svc := newTestRouter(t)

	body := bytes.NewBufferString(`{"worker_id":"w-2","method":"web"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", body)
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.lastCheckIn.WorkerID)
}

func TestSummaryRoute_ForeignWorkerForbiddenForWorker(t *testing.T) {
	router, jwtService, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary?worker_id=w-2", nil)
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSummaryRoute_ManagerReadsAnyWorker(t *testing.T) {
	router, jwtService, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/summary?worker_id=w-2", nil)
	req.Header.Set("Authorization", bearer(t, jwtService, "mgr-1", jwt.RoleManager))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestManualCorrectionRoute_ManagerOnly(t *testing.T) {
	router, jwtService, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"status":"present"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/attendance/rec-1", body)
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestManualCorrectionRoute_ManagerAllowed(t *testing.T) {
	router, jwtService, svc := newTestRouter(t)

	body := bytes.NewBufferString(`{"status":"present"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/attendance/rec-1", body)
	req.Header.Set("Authorization", bearer(t, jwtService, "mgr-1", jwt.RoleManager))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rec-1", svc.lastCorrection.ID)
	assert.Equal(t, "mgr-1", svc.lastCorrection.ActorID)
}

func TestTeamSummaryRoute_ManagerOnly(t *testing.T) {
	router, jwtService, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/team-summary?start_date=2026-03-02&end_date=2026-03-06", nil)
	req.Header.Set("Authorization", bearer(t, jwtService, "w-1", jwt.RoleWorker))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleError_ConflictMapping(t *testing.T) {
	rec := httptest.NewRecorder()
	response.HandleError(rec, attendance.ErrAlreadyCheckedIn)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	response.HandleError(rec, attendance.ErrNotCheckedIn)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	response.HandleError(rec, attendance.ErrNotEligible)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
