package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// ReportRunner produces a fresh report
type ReportRunner interface {
	Run(ctx context.Context, period contracts.Period) (*contracts.Report, error)
}

// ReportHandler serves reconciled reports
// ⭐ SSOT: 리포트 API 핸들러는 이 구조체에서만
type ReportHandler struct {
	store  contracts.ReportStore
	runner ReportRunner
	logger *logger.Logger
}

// NewReportHandler creates a report handler. store may be nil, in which case
// every read triggers a live run.
func NewReportHandler(store contracts.ReportStore, runner ReportRunner, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		store:  store,
		runner: runner,
		logger: log.Module("api"),
	}
}

// GetReport returns the latest stored report of a period
// GET /api/reports/{period}
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	period, err := contracts.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.store == nil {
		h.run(w, r, period)
		return
	}

	report, err := h.store.LatestReport(r.Context(), period)
	if err != nil {
		h.logger.WithError(err).WithField("period", period).Error("Failed to load report")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve report")
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "no report stored for "+string(period))
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// RunReport produces (and, with a store, saves) a fresh report
// POST /api/reports/{period}/run
func (h *ReportHandler) RunReport(w http.ResponseWriter, r *http.Request) {
	period, err := contracts.ParsePeriod(mux.Vars(r)["period"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.run(w, r, period)
}

func (h *ReportHandler) run(w http.ResponseWriter, r *http.Request, period contracts.Period) {
	report, err := h.runner.Run(r.Context(), period)
	if err != nil {
		h.logger.WithError(err).WithField("period", period).Error("Report run failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}
