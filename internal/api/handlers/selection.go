package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/wonny/alphaselector/internal/selection"
	"github.com/wonny/alphaselector/internal/strategy"
	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/logger"
)

// SelectionHandler serves strategies and selection reports
// ⭐ SSOT: 选股 API 处理只在这里
type SelectionHandler struct {
	service *selection.Service
	logger  *logger.Logger
}

// NewSelectionHandler creates a new selection handler
func NewSelectionHandler(svc *selection.Service, log *logger.Logger) *SelectionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SelectionHandler{service: svc, logger: log}
}

// StrategyInfo describes one registered strategy
type StrategyInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListStrategies returns the registered strategies in order
// GET /api/strategies
func (h *SelectionHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	all := h.service.Registry().All()
	out := make([]StrategyInfo, 0, len(all))
	for _, s := range all {
		info := StrategyInfo{Name: s.Name(), Title: strategy.Title(s.Name())}
		if d, ok := s.(strategy.Describer); ok {
			info.Description = d.Describe()
		}
		out = append(out, info)
	}
	respondJSON(w, http.StatusOK, out)
}

// LatestReport returns the most recent published report
// GET /api/reports/latest
func (h *SelectionHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.service.Store().Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "No report yet")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// RunRequest is the body of POST /api/reports; every field is optional
type RunRequest struct {
	Strategies []string `json:"strategies"`
	Start      string   `json:"start"` // YYYYMMDD
	End        string   `json:"end"`   // YYYYMMDD
	Limit      int      `json:"limit"`
}

// RunSelection runs a selection now and returns its report
// POST /api/reports
func (h *SelectionHandler) RunSelection(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opts := selection.RunOptions{Strategies: req.Strategies, Limit: req.Limit}
	var err error
	if req.Start != "" {
		if opts.Start, err = time.ParseInLocation(config.DateLayout, req.Start, time.Local); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'start' date format (expected YYYYMMDD)")
			return
		}
	}
	if req.End != "" {
		if opts.End, err = time.ParseInLocation(config.DateLayout, req.End, time.Local); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'end' date format (expected YYYYMMDD)")
			return
		}
	}
	if req.Limit < 0 {
		respondError(w, http.StatusBadRequest, "'limit' must not be negative")
		return
	}

	report, err := h.service.Run(r.Context(), opts)
	switch {
	case errors.Is(err, selection.ErrRunInProgress):
		respondError(w, http.StatusConflict, err.Error())
	case err != nil && report == nil:
		respondError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.WithError(err).Error("Selection run failed")
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondJSON(w, http.StatusOK, report)
	}
}
