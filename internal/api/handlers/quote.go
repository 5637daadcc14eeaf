package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/reconcile"
	"github.com/wonny/momentum/pkg/logger"
)

// QuoteHandler serves same-day quotes from the merged price catalog
type QuoteHandler struct {
	fetcher reconcile.SnapshotFetcher
	logger  *logger.Logger
}

// NewQuoteHandler creates a quote handler
func NewQuoteHandler(fetcher reconcile.SnapshotFetcher, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		fetcher: fetcher,
		logger:  log.Module("api"),
	}
}

// QuoteResponse is one stock's quote
type QuoteResponse struct {
	TradingDate contracts.TradingDate `json:"trading_date"`
	Quote       contracts.PriceRecord `json:"quote"`
}

// GetQuote returns a stock's quote
// GET /api/quotes/{code}
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		respondError(w, http.StatusBadRequest, "stock code is required")
		return
	}

	snapshot, err := h.fetcher.Fetch(r.Context())
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Failed to fetch prices")
		respondError(w, statusFor(err), "Failed to retrieve prices")
		return
	}

	record, ok := snapshot.Merged.Lookup(code)
	if !ok {
		respondError(w, http.StatusNotFound, "no quote for "+code)
		return
	}

	respondJSON(w, http.StatusOK, QuoteResponse{
		TradingDate: snapshot.TradingDate,
		Quote:       record,
	})
}
