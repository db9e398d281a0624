package store

import (
	"context"
	"testing"
	"time"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/matching"
	apperrors "github.com/skillmatch/skill-match/internal/pkg/errors"
)

func TestMemoryStore_FetchUserProfile(t *testing.T) {
	s := NewMemoryStore()
	s.AddUserProfile(matching.UserProfile{
		ID:              "u1",
		YearsExperience: 4,
		Languages: []matching.UserLanguage{
			{Name: "Go", ProficiencyLevel: matching.NamedLevel(matching.LevelAdvanced), YearsExperience: 4},
		},
	})

	profile, err := s.FetchUserProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FetchUserProfile() error = %v", err)
	}
	if profile.YearsExperience != 4 || len(profile.Languages) != 1 {
		t.Errorf("profile = %+v, want seeded profile", profile)
	}

	_, err = s.FetchUserProfile(context.Background(), "missing")
	if !apperrors.IsNotFound(err) {
		t.Errorf("error = %v, want not-found", err)
	}
}

func TestMemoryStore_UpsertRecommendationsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := []matching.ScoredCandidate{
		{ProjectID: "p1", Score: 70},
		{ProjectID: "p2", Score: 65},
	}
	if err := s.UpsertRecommendations(ctx, "u1", first); err != nil {
		t.Fatalf("UpsertRecommendations() error = %v", err)
	}

	// Re-running for the same pairs must update, not duplicate.
	second := []matching.ScoredCandidate{
		{ProjectID: "p1", Score: 80},
	}
	if err := s.UpsertRecommendations(ctx, "u1", second); err != nil {
		t.Fatalf("UpsertRecommendations() error = %v", err)
	}

	if got := s.RecommendationCount("u1"); got != 2 {
		t.Errorf("RecommendationCount = %d, want 2", got)
	}

	records, err := s.FetchRecommendationHistory(ctx, time.Hour)
	if err != nil {
		t.Fatalf("FetchRecommendationHistory() error = %v", err)
	}
	for _, r := range records {
		if r.ProjectID == "p1" && r.Score != 80 {
			t.Errorf("p1 score = %v, want updated score 80", r.Score)
		}
	}
}

func TestMemoryStore_FetchMemberProjectIDs(t *testing.T) {
	s := NewMemoryStore()
	s.AddMembership("u1", "p1", analytics.Membership{Status: analytics.MembershipActive})
	s.AddMembership("u1", "p2", analytics.Membership{Status: "left"})

	ids, err := s.FetchMemberProjectIDs(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FetchMemberProjectIDs() error = %v", err)
	}
	if !ids["p1"] || !ids["p2"] || len(ids) != 2 {
		t.Errorf("ids = %v, want p1 and p2", ids)
	}
}

func TestMemoryStore_FetchMembership(t *testing.T) {
	s := NewMemoryStore()
	s.AddMembership("u1", "p1", analytics.Membership{
		Status:            analytics.MembershipActive,
		ContributionScore: 85,
	})

	m, err := s.FetchMembership(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("FetchMembership() error = %v", err)
	}
	if m == nil || m.ContributionScore != 85 {
		t.Errorf("membership = %+v, want seeded membership", m)
	}

	none, err := s.FetchMembership(context.Background(), "u1", "p9")
	if err != nil || none != nil {
		t.Errorf("missing membership = (%+v, %v), want (nil, nil)", none, err)
	}
}

func TestMemoryStore_RecordFeedback(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	score := 4
	err := s.RecordFeedback(ctx, analytics.FeedbackRecord{
		UserID:      "u1",
		ProjectID:   "p1",
		ActionTaken: "applied",
		Score:       &score,
	})
	if err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}

	feedback, err := s.FetchFeedback(ctx, time.Hour)
	if err != nil {
		t.Fatalf("FetchFeedback() error = %v", err)
	}
	if len(feedback) != 1 || feedback[0].ActionTaken != "applied" {
		t.Errorf("feedback = %+v, want one applied record", feedback)
	}
}

func TestMemoryStore_ProjectsAreCopied(t *testing.T) {
	s := NewMemoryStore()
	s.AddProject(matching.CandidateProject{ID: "p1", Title: "original"})

	projects, err := s.FetchCandidateProjects(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FetchCandidateProjects() error = %v", err)
	}

	projects[0].Title = "mutated"

	again, _ := s.FetchCandidateProjects(context.Background(), "u1")
	if again[0].Title != "original" {
		t.Error("caller mutation leaked into the store")
	}
}
