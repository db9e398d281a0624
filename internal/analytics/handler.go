package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/skillmatch/skill-match/internal/pkg/errors"
	"github.com/skillmatch/skill-match/internal/pkg/security"
)

// MetricsRecorder receives analytics request measurements. The metrics
// package implements it; the indirection keeps analytics free of a
// metrics import.
type MetricsRecorder interface {
	RecordAnalytics(kind string, latencyMs int64, mockFallback bool)
}

// Handler provides HTTP handlers for effectiveness analytics.
type Handler struct {
	analyzer *Analyzer
	metrics  MetricsRecorder
}

// NewHandler creates a new analytics handler.
func NewHandler(a *Analyzer) *Handler {
	return &Handler{analyzer: a}
}

// WithMetrics attaches a metrics recorder.
func (h *Handler) WithMetrics(rec MetricsRecorder) *Handler {
	h.metrics = rec
	return h
}

// RegisterRoutes registers analytics routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/analytics/confusion-matrix/recommendations", h.handleRecommendationMatrix)
	mux.HandleFunc("GET /v1/analytics/confusion-matrix/assessments", h.handleAssessmentMatrix)
	mux.HandleFunc("GET /v1/analytics/effectiveness", h.handleEffectiveness)
}

// MatrixResponse is the wire shape of a confusion matrix.
type MatrixResponse struct {
	Kind    MatrixKind                `json:"kind"`
	Source  Source                    `json:"source"`
	Window  string                    `json:"window"`
	Cells   map[string]map[string]int `json:"cells"`
	Total   int                       `json:"total"`
	Metrics Metrics                   `json:"metrics"`
}

func (h *Handler) handleRecommendationMatrix(w http.ResponseWriter, r *http.Request) {
	h.serveMatrix(w, r, "recommendation", h.analyzer.RecommendationMatrix)
}

func (h *Handler) handleAssessmentMatrix(w http.ResponseWriter, r *http.Request) {
	h.serveMatrix(w, r, "assessment", h.analyzer.AssessmentMatrix)
}

type matrixBuilder func(ctx context.Context, timeframe string) (*ConfusionMatrix, error)

func (h *Handler) serveMatrix(w http.ResponseWriter, r *http.Request, kind string, build matrixBuilder) {
	timeframe, err := timeframeParam(r)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	start := time.Now()
	matrix, err := build(r.Context(), timeframe)
	if err != nil {
		errors.WriteError(w, err)
		return
	}
	h.recordAnalytics(kind, start, matrix.Source == SourceMock)

	writeMatrixResponse(w, matrix)
}

func (h *Handler) handleEffectiveness(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := h.analyzer.Effectiveness(r.Context())
	if err != nil {
		errors.WriteError(w, err)
		return
	}
	mock := report.RecommendationSource == SourceMock || report.AssessmentSource == SourceMock
	h.recordAnalytics("effectiveness", start, mock)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

func (h *Handler) recordAnalytics(kind string, start time.Time, mockFallback bool) {
	if h.metrics != nil {
		h.metrics.RecordAnalytics(kind, time.Since(start).Milliseconds(), mockFallback)
	}
}

func writeMatrixResponse(w http.ResponseWriter, matrix *ConfusionMatrix) {
	resp := MatrixResponse{
		Kind:    matrix.Kind,
		Source:  matrix.Source,
		Window:  matrix.Window.String(),
		Cells:   matrix.Cells,
		Total:   matrix.Total(),
		Metrics: ComputeMetrics(matrix),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func timeframeParam(r *http.Request) (string, error) {
	timeframe := r.URL.Query().Get("timeframe")
	if err := security.ValidateWindow(timeframe); err != nil {
		return "", errors.ValidationError(err.Error())
	}
	return timeframe, nil
}
