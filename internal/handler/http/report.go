package http

import (
	"net/http"
	"strings"

	"github.com/mihirrannly/HRManagementSystem-sub005/internal/domain/report"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http/middleware"
	"github.com/mihirrannly/HRManagementSystem-sub005/internal/handler/http/response"
)

type ReportHandler interface {
	Summary(w http.ResponseWriter, r *http.Request)
	TeamSummary(w http.ResponseWriter, r *http.Request)
	Calendar(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// Summary implements ReportHandler. Workers read their own summary; reading
// someone else's via worker_id requires the manager role.
func (h *reportHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	workerID := r.URL.Query().Get("worker_id")
	if !callerMayActFor(r, workerID) {
		response.Forbidden(w, "Cannot view another worker's summary")
		return
	}
	if workerID == "" {
		workerID = middleware.WorkerID(r)
	}
	if workerID == "" {
		response.Unauthorized(w, "Missing or invalid token")
		return
	}

	result, err := h.reportService.Summary(r.Context(), workerID, rangeFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// TeamSummary implements ReportHandler.
func (h *reportHandlerImpl) TeamSummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.TeamSummary(r.Context(), rangeFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Calendar implements ReportHandler.
func (h *reportHandlerImpl) Calendar(w http.ResponseWriter, r *http.Request) {
	var workerIDs []string
	if raw := r.URL.Query().Get("worker_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				workerIDs = append(workerIDs, id)
			}
		}
	}

	result, err := h.reportService.Calendar(r.Context(), rangeFilter(r), workerIDs)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func rangeFilter(r *http.Request) report.RangeFilter {
	return report.RangeFilter{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
}
