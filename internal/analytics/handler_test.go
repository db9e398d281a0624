package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillmatch/skill-match/internal/pkg/logger"
)

func newTestHandler(store Store) *http.ServeMux {
	analyzer := NewAnalyzer(store, Config{DefaultWindow: "30 days", MockFallback: true}, logger.New("error", "text"))
	mux := http.NewServeMux()
	NewHandler(analyzer).RegisterRoutes(mux)
	return mux
}

func TestHandler_RecommendationMatrix(t *testing.T) {
	mux := newTestHandler(&fakeStore{
		records: []RecommendationRecord{
			{UserID: "u1", ProjectID: "p1", Score: 90, Feedback: &FeedbackRecord{Score: intPtr(5)}},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/confusion-matrix/recommendations?timeframe=7+days", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp MatrixResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	if resp.Source != SourceReal {
		t.Errorf("source = %q, want %q", resp.Source, SourceReal)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
	if resp.Metrics.Accuracy != 1 {
		t.Errorf("accuracy = %v, want 1", resp.Metrics.Accuracy)
	}
}

func TestHandler_AssessmentMatrix_MockFallback(t *testing.T) {
	mux := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/confusion-matrix/assessments", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp MatrixResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	if resp.Source != SourceMock {
		t.Errorf("source = %q, want %q", resp.Source, SourceMock)
	}
}

func TestHandler_InvalidTimeframe(t *testing.T) {
	mux := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/confusion-matrix/recommendations?timeframe=whenever", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

type fakeMetricsRecorder struct {
	kinds         []string
	mockFallbacks []bool
}

func (f *fakeMetricsRecorder) RecordAnalytics(kind string, latencyMs int64, mockFallback bool) {
	f.kinds = append(f.kinds, kind)
	f.mockFallbacks = append(f.mockFallbacks, mockFallback)
}

func TestHandler_RecordsMetrics(t *testing.T) {
	analyzer := NewAnalyzer(&fakeStore{}, Config{DefaultWindow: "30 days", MockFallback: true}, logger.New("error", "text"))
	recorder := &fakeMetricsRecorder{}
	mux := http.NewServeMux()
	NewHandler(analyzer).WithMetrics(recorder).RegisterRoutes(mux)

	paths := []string{
		"/v1/analytics/confusion-matrix/recommendations",
		"/v1/analytics/confusion-matrix/assessments",
		"/v1/analytics/effectiveness",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, rec.Code)
		}
	}

	want := []string{"recommendation", "assessment", "effectiveness"}
	if len(recorder.kinds) != len(want) {
		t.Fatalf("recorded %d analytics requests, want %d", len(recorder.kinds), len(want))
	}
	for i, kind := range want {
		if recorder.kinds[i] != kind {
			t.Errorf("kinds[%d] = %q, want %q", i, recorder.kinds[i], kind)
		}
		// The empty store forces the mock fixtures for every kind.
		if !recorder.mockFallbacks[i] {
			t.Errorf("mockFallbacks[%d] = false, want true", i)
		}
	}

	// Failed requests record nothing.
	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/confusion-matrix/recommendations?timeframe=whenever", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(recorder.kinds) != len(want) {
		t.Errorf("recorded %d analytics requests after a failed request, want %d", len(recorder.kinds), len(want))
	}
}

func TestHandler_Effectiveness(t *testing.T) {
	mux := newTestHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/effectiveness", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var report EffectivenessReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	if report.RecommendationSource != SourceMock || report.AssessmentSource != SourceMock {
		t.Errorf("sources = %q/%q, want mock/mock for empty store",
			report.RecommendationSource, report.AssessmentSource)
	}
}
