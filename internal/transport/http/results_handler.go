package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"lendlib/internal/aggregate"
	"lendlib/internal/errors"
	"lendlib/internal/forecast"
	"lendlib/internal/gaps"
	"lendlib/internal/pipeline"
	"lendlib/internal/services"
)

const dateFormat = "2006-01-02"

// GapResponse is one gap row of the API.
type GapResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
	Label string `json:"gap_label"`
}

// CountResponse is one periodic count row.
type CountResponse struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

// PredictionResponse is one forecast row.
type PredictionResponse struct {
	DS        string  `json:"ds"`
	YHat      float64 `json:"yhat"`
	YHatLower float64 `json:"yhat_lower"`
	YHatUpper float64 `json:"yhat_upper"`
}

// RunResponse summarizes a completed pipeline run.
type RunResponse struct {
	LargeGaps   int `json:"large_gaps"`
	SkippedGaps int `json:"skipped_gaps"`
	Members     int `json:"members"`
	Forecasts   int `json:"forecasts"`
}

// ResultsHandler serves the cached pipeline result.
type ResultsHandler struct {
	logger     *slog.Logger
	svc        *services.ResultsService
	errHandler *errors.ErrorHandler
}

// NewResultsHandler creates the handler.
func NewResultsHandler(logger *slog.Logger, svc *services.ResultsService) *ResultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{
		logger:     logger,
		svc:        svc,
		errHandler: errors.NewErrorHandler(logger),
	}
}

// Run triggers a fresh pipeline run and returns its summary.
func (h *ResultsHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Refresh(r.Context())
	if err != nil {
		h.errHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RunResponse{
		LargeGaps:   len(result.Gaps.Large),
		SkippedGaps: len(result.Gaps.Skipped),
		Members:     len(result.FirstEvents),
		Forecasts:   len(result.Forecasts),
	})
}

// Gaps serves the large-gap list.
func (h *ResultsHandler) Gaps(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, gapResponses(result.Gaps.Large))
}

// SkippedGaps serves the short gaps that were acknowledged but not
// forecast.
func (h *ResultsHandler) SkippedGaps(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, gapResponses(result.Gaps.Skipped))
}

// WeeklyCounts serves the weekly first-subscription series.
func (h *ResultsHandler) WeeklyCounts(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, countResponses(result.WeeklySubscribers))
}

// WeeklyLogbookCounts serves the gap-free weekly logbook activity
// series.
func (h *ResultsHandler) WeeklyLogbookCounts(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, countResponses(result.WeeklyLogbook))
}

// YearlyCounts serves the yearly first-event series.
func (h *ResultsHandler) YearlyCounts(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, countResponses(result.YearlyFirstEvents))
}

// Forecasts serves the concatenated forecast table. The window query
// parameter selects the near-gap slice (default) or the full extended
// axes.
func (h *ResultsHandler) Forecasts(w http.ResponseWriter, r *http.Request) {
	result, ok := h.latest(w, r)
	if !ok {
		return
	}

	var preds []forecast.Prediction
	switch window := r.URL.Query().Get("window"); window {
	case "", "near":
		preds = forecast.ConcatNear(result.Forecasts)
	case "full":
		preds = forecast.ConcatFull(result.Forecasts)
	default:
		h.errHandler.HandleError(w, r, errors.NewValidationError(
			"unknown forecast window: "+window))
		return
	}

	render.JSON(w, r, predictionResponses(preds))
}

// latest fetches the cached result, responding 404 before the first
// successful run.
func (h *ResultsHandler) latest(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	result := h.svc.Latest()
	if result == nil {
		h.errHandler.HandleError(w, r, errors.NewNotFoundError("pipeline results"))
		return nil, false
	}
	return result, true
}

func gapResponses(gapList []gaps.Gap) []GapResponse {
	out := make([]GapResponse, 0, len(gapList))
	for _, g := range gapList {
		out = append(out, GapResponse{
			Start: g.Start.Format(dateFormat),
			End:   g.End.Format(dateFormat),
			Days:  g.Days,
			Label: g.Label(),
		})
	}
	return out
}

func countResponses(counts []aggregate.PeriodicCount) []CountResponse {
	out := make([]CountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, CountResponse{
			Date:  c.Date.Format(dateFormat),
			Total: c.Total,
		})
	}
	return out
}

func predictionResponses(preds []forecast.Prediction) []PredictionResponse {
	out := make([]PredictionResponse, 0, len(preds))
	for _, p := range preds {
		out = append(out, PredictionResponse{
			DS:        p.DS.Format(dateFormat),
			YHat:      p.YHat,
			YHatLower: p.YHatLower,
			YHatUpper: p.YHatUpper,
		})
	}
	return out
}
