package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/factor"
	"github.com/wonny/alphaselector/pkg/logger"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// FactorHandler computes factors for a single stock on demand
type FactorHandler struct {
	bars         contracts.BarProvider
	engine       *factor.Engine
	defaultStart time.Time
	defaultEnd   time.Time
	logger       *logger.Logger
}

// NewFactorHandler creates a factor handler; start/end are used when the query omits them
func NewFactorHandler(bars contracts.BarProvider, start, end time.Time, log *logger.Logger) *FactorHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &FactorHandler{
		bars:         bars,
		engine:       factor.NewEngine(log),
		defaultStart: start,
		defaultEnd:   end,
		logger:       log,
	}
}

// GetFactors returns the FactorSeries of a stock; undefined values are null
// GET /api/factors/{code}?start=YYYYMMDD&end=YYYYMMDD&tail=N
func (h *FactorHandler) GetFactors(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !codePattern.MatchString(code) {
		respondError(w, http.StatusBadRequest, "Invalid stock code (expected 6 digits)")
		return
	}

	start, ok, err := parseDate(r, "start")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'start' date format (expected YYYYMMDD)")
		return
	}
	if !ok {
		start = h.defaultStart
	}
	end, ok, err := parseDate(r, "end")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'end' date format (expected YYYYMMDD)")
		return
	}
	if !ok {
		end = h.defaultEnd
	}

	series, err := h.bars.FetchDailyBars(r.Context(), code, start, end)
	if err != nil {
		h.logger.WithError(err).WithField("stock_code", code).Warn("Failed to fetch bars")
		respondError(w, http.StatusBadGateway, "Failed to fetch daily bars")
		return
	}
	if len(series) == 0 {
		respondError(w, http.StatusNotFound, "No daily bars in range")
		return
	}

	fs := h.engine.ComputeFactors(series)
	if v := r.URL.Query().Get("tail"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "'tail' must be a positive integer")
			return
		}
		fs = fs.Tail(n)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"code":    code,
		"count":   len(fs),
		"factors": fs,
	})
}
