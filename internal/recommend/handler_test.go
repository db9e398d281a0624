package recommend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	NewHandler(newTestService(seedStore(), nil, nil)).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandlerRecommend(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/recommendations", RecommendRequest{UserID: "user-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Count != 1 || len(got.Recommendations) != 1 {
		t.Fatalf("Count = %d, Recommendations = %d, want 1 each", got.Count, len(got.Recommendations))
	}
	if got.Recommendations[0].ProjectID != "proj-go" {
		t.Errorf("ProjectID = %q, want %q", got.Recommendations[0].ProjectID, "proj-go")
	}
}

func TestHandlerRecommend_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"missing user_id", RecommendRequest{}, http.StatusBadRequest},
		{"invalid user_id", RecommendRequest{UserID: "-bad-id"}, http.StatusBadRequest},
		{"limit too large", RecommendRequest{UserID: "user-1", Limit: 500}, http.StatusBadRequest},
		{"unknown user", RecommendRequest{UserID: "no-such-user"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/recommendations", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestHandlerRecommend_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/recommendations", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandlerFactors(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/recommendations/factors", FactorsRequest{
		UserID:    "user-1",
		ProjectID: "proj-go",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got FactorsResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ProjectID != "proj-go" {
		t.Errorf("ProjectID = %q, want %q", got.ProjectID, "proj-go")
	}
	if got.Score != 78 {
		t.Errorf("Score = %d, want 78", got.Score)
	}
	if len(got.Factors.LanguageMatches) == 0 {
		t.Error("expected language matches in factors")
	}
}

func TestHandlerFactors_BelowThreshold(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/recommendations/factors", FactorsRequest{
		UserID:    "user-1",
		ProjectID: "proj-weak",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var got FactorsResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Score >= 55 {
		t.Errorf("Score = %d, want below 55", got.Score)
	}
}

func TestHandlerFactors_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/recommendations/factors", FactorsRequest{
		UserID:    "user-1",
		ProjectID: "no-such-project",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHandlerFeedback(t *testing.T) {
	srv := newTestServer(t)

	score := 5
	resp := postJSON(t, srv.URL+"/v1/recommendations/user-1/feedback", FeedbackRequest{
		ProjectID:   "proj-go",
		ActionTaken: "joined",
		Score:       &score,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != "recorded" {
		t.Errorf("status field = %q, want %q", got["status"], "recorded")
	}
}

func TestHandlerFeedback_Errors(t *testing.T) {
	srv := newTestServer(t)

	badScore := 0
	tests := []struct {
		name       string
		path       string
		body       FeedbackRequest
		wantStatus int
	}{
		{
			"bad action",
			"/v1/recommendations/user-1/feedback",
			FeedbackRequest{ProjectID: "proj-go", ActionTaken: "starred"},
			http.StatusBadRequest,
		},
		{
			"score out of range",
			"/v1/recommendations/user-1/feedback",
			FeedbackRequest{ProjectID: "proj-go", ActionTaken: "viewed", Score: &badScore},
			http.StatusBadRequest,
		},
		{
			"missing project",
			"/v1/recommendations/user-1/feedback",
			FeedbackRequest{ActionTaken: "viewed"},
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
