package recommend

import (
	"encoding/json"
	"net/http"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/matching"
	"github.com/skillmatch/skill-match/internal/pkg/errors"
	"github.com/skillmatch/skill-match/internal/pkg/security"
)

// Handler provides HTTP handlers for the recommendation endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new recommendation handler.
func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterRoutes registers recommendation routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/recommendations", h.handleRecommend)
	mux.HandleFunc("POST /v1/recommendations/factors", h.handleFactors)
	mux.HandleFunc("POST /v1/recommendations/{user_id}/feedback", h.handleFeedback)
}

// RecommendRequest is the wire shape of a recommendation request.
type RecommendRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// RecommendResponse is the wire shape of a recommendation list.
type RecommendResponse struct {
	UserID          string                     `json:"user_id"`
	Count           int                        `json:"count"`
	Recommendations []matching.ScoredCandidate `json:"recommendations"`
}

func (h *Handler) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decodeBody(w, r, &req); err != nil {
		errors.WriteError(w, err)
		return
	}

	validator := security.RecommendRequestValidator{UserID: req.UserID, Limit: req.Limit}
	if err := validator.Validate(); err != nil {
		errors.WriteError(w, errors.ValidationError(err.Error()))
		return
	}

	ranked, err := h.service.Recommend(r.Context(), req.UserID, req.Limit)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	writeJSON(w, RecommendResponse{
		UserID:          req.UserID,
		Count:           len(ranked),
		Recommendations: ranked,
	})
}

// FactorsRequest identifies the user/project pair to explain.
type FactorsRequest struct {
	UserID    string `json:"user_id"`
	ProjectID string `json:"project_id"`
}

// FactorsResponse is the wire shape of a factor breakdown.
type FactorsResponse struct {
	UserID    string               `json:"user_id"`
	ProjectID string               `json:"project_id"`
	Score     int                  `json:"score"`
	Factors   matching.MatchFactors `json:"match_factors"`
}

func (h *Handler) handleFactors(w http.ResponseWriter, r *http.Request) {
	var req FactorsRequest
	if err := decodeBody(w, r, &req); err != nil {
		errors.WriteError(w, err)
		return
	}

	if err := security.ValidateID("user_id", req.UserID); err != nil {
		errors.WriteError(w, errors.ValidationError(err.Error()))
		return
	}
	if err := security.ValidateID("project_id", req.ProjectID); err != nil {
		errors.WriteError(w, errors.ValidationError(err.Error()))
		return
	}

	candidate, err := h.service.MatchFactors(r.Context(), req.UserID, req.ProjectID)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	writeJSON(w, FactorsResponse{
		UserID:    req.UserID,
		ProjectID: candidate.ProjectID,
		Score:     candidate.Score,
		Factors:   candidate.MatchFactors,
	})
}

// FeedbackRequest is the wire shape of a feedback submission.
type FeedbackRequest struct {
	ProjectID   string `json:"project_id"`
	ActionTaken string `json:"action_taken"`
	Score       *int   `json:"score,omitempty"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := security.ValidateID("user_id", userID); err != nil {
		errors.WriteError(w, errors.ValidationError(err.Error()))
		return
	}

	var req FeedbackRequest
	if err := decodeBody(w, r, &req); err != nil {
		errors.WriteError(w, err)
		return
	}
	if err := security.ValidateID("project_id", req.ProjectID); err != nil {
		errors.WriteError(w, errors.ValidationError(err.Error()))
		return
	}

	err := h.service.RecordFeedback(r.Context(), feedbackRecord(userID, req))
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "recorded"})
}

func feedbackRecord(userID string, req FeedbackRequest) analytics.FeedbackRecord {
	return analytics.FeedbackRecord{
		UserID:      userID,
		ProjectID:   req.ProjectID,
		ActionTaken: req.ActionTaken,
		Score:       req.Score,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, security.MaxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ValidationError("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
