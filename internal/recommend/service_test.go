package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/bus"
	"github.com/skillmatch/skill-match/internal/cache"
	"github.com/skillmatch/skill-match/internal/matching"
	"github.com/skillmatch/skill-match/internal/matching/rerank"
	"github.com/skillmatch/skill-match/internal/pkg/errors"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
	"github.com/skillmatch/skill-match/internal/store"
)

func seedStore() *store.MemoryStore {
	st := store.NewMemoryStore()

	st.AddUserProfile(matching.UserProfile{
		ID:              "user-1",
		YearsExperience: 8,
		Topics: []matching.UserTopic{
			{
				Name:            "web",
				InterestLevel:   matching.NamedLevel(matching.LevelExpert),
				ExperienceLevel: matching.NamedLevel(matching.LevelExpert),
			},
		},
		Languages: []matching.UserLanguage{
			{
				Name:             "go",
				ProficiencyLevel: matching.NamedLevel(matching.LevelExpert),
				YearsExperience:  8,
			},
		},
	})

	st.AddProject(matching.CandidateProject{
		ID:                      "proj-go",
		OwnerID:                 "owner-1",
		RequiredExperienceLevel: matching.LevelIntermediate,
		CurrentMembers:          1,
		MaximumMembers:          5,
		Topics:                  []matching.ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []matching.ProjectLanguage{
			{Name: "go", RequiredLevel: matching.NamedLevel(matching.LevelIntermediate), IsPrimary: true},
		},
	})

	// Below the eligibility threshold: no shared topics or languages.
	st.AddProject(matching.CandidateProject{
		ID:                      "proj-weak",
		OwnerID:                 "owner-2",
		RequiredExperienceLevel: matching.LevelBeginner,
		CurrentMembers:          1,
		MaximumMembers:          5,
		Topics:                  []matching.ProjectTopic{{Name: "ml", IsPrimary: true}},
		Languages: []matching.ProjectLanguage{
			{Name: "rust", RequiredLevel: matching.NamedLevel(matching.LevelExpert), IsPrimary: true},
		},
	})

	return st
}

func newTestService(st *store.MemoryStore, c cache.Cache, b bus.Bus) *Service {
	log := logger.Default()
	scorer := matching.NewScorer(matching.DefaultWeights())
	ranker := rerank.NewRanker(rerank.DefaultLambda, log)
	return NewService(st, c, b, scorer, ranker, nil, log, Config{})
}

func TestServiceRecommend(t *testing.T) {
	st := seedStore()
	svc := newTestService(st, nil, nil)

	ranked, err := svc.Recommend(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(ranked))
	}
	if ranked[0].ProjectID != "proj-go" {
		t.Errorf("ProjectID = %q, want %q", ranked[0].ProjectID, "proj-go")
	}
	if ranked[0].Score != 78 {
		t.Errorf("Score = %d, want 78", ranked[0].Score)
	}
	if st.RecommendationCount("user-1") != 1 {
		t.Errorf("stored %d recommendations, want 1", st.RecommendationCount("user-1"))
	}
}

func TestServiceRecommend_FiltersCandidates(t *testing.T) {
	st := seedStore()

	st.AddProject(matching.CandidateProject{
		ID:                      "proj-owned",
		OwnerID:                 "user-1",
		RequiredExperienceLevel: matching.LevelBeginner,
		CurrentMembers:          1,
		MaximumMembers:          5,
		Topics:                  []matching.ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []matching.ProjectLanguage{
			{Name: "go", RequiredLevel: matching.NamedLevel(matching.LevelBeginner), IsPrimary: true},
		},
	})
	st.AddProject(matching.CandidateProject{
		ID:                      "proj-full",
		OwnerID:                 "owner-3",
		RequiredExperienceLevel: matching.LevelBeginner,
		CurrentMembers:          5,
		MaximumMembers:          5,
		Topics:                  []matching.ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []matching.ProjectLanguage{
			{Name: "go", RequiredLevel: matching.NamedLevel(matching.LevelBeginner), IsPrimary: true},
		},
	})
	st.AddProject(matching.CandidateProject{
		ID:                      "proj-member",
		OwnerID:                 "owner-4",
		RequiredExperienceLevel: matching.LevelBeginner,
		CurrentMembers:          1,
		MaximumMembers:          5,
		Topics:                  []matching.ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []matching.ProjectLanguage{
			{Name: "go", RequiredLevel: matching.NamedLevel(matching.LevelBeginner), IsPrimary: true},
		},
	})
	st.AddMembership("user-1", "proj-member", analytics.Membership{})

	svc := newTestService(st, nil, nil)

	ranked, err := svc.Compute(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d candidates, want 1", len(ranked))
	}
	if ranked[0].ProjectID != "proj-go" {
		t.Errorf("ProjectID = %q, want %q", ranked[0].ProjectID, "proj-go")
	}
}

func TestServiceRecommend_Validation(t *testing.T) {
	svc := newTestService(seedStore(), nil, nil)

	if _, err := svc.Recommend(context.Background(), "", 10); !errors.IsValidation(err) {
		t.Errorf("empty user_id: got %v, want validation error", err)
	}
	if _, err := svc.Recommend(context.Background(), "no-such-user", 10); !errors.IsNotFound(err) {
		t.Errorf("unknown user: got %v, want not-found error", err)
	}
}

func TestServiceRecommend_CacheHit(t *testing.T) {
	st := seedStore()
	log := logger.Default()
	eventBus := bus.NewMemoryBus(log)
	defer eventBus.Close()

	var (
		mu        sync.Mutex
		published int
	)
	eventBus.Subscribe(context.Background(), bus.TopicRecommendationsGenerated, func(_ context.Context, _ bus.Event) error {
		mu.Lock()
		published++
		mu.Unlock()
		return nil
	})

	svc := newTestService(st, cache.NewMemoryCache(100), eventBus)

	first, err := svc.Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("first Recommend() error = %v", err)
	}
	second, err := svc.Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("second Recommend() error = %v", err)
	}

	if len(first) != len(second) || first[0].ProjectID != second[0].ProjectID {
		t.Errorf("cached list differs: first=%v second=%v", first, second)
	}

	if !eventBus.DrainTimeout(time.Second) {
		t.Fatal("bus did not drain")
	}
	mu.Lock()
	defer mu.Unlock()
	if published != 1 {
		t.Errorf("published %d events, want 1 (second call should hit the cache)", published)
	}
}

func TestServiceMatchFactors(t *testing.T) {
	svc := newTestService(seedStore(), nil, nil)

	candidate, err := svc.MatchFactors(context.Background(), "user-1", "proj-go")
	if err != nil {
		t.Fatalf("MatchFactors() error = %v", err)
	}
	if candidate.Score != 78 {
		t.Errorf("Score = %d, want 78", candidate.Score)
	}
	if len(candidate.MatchFactors.TopicMatches) == 0 {
		t.Error("expected topic matches in factors")
	}

	// Ineligible pairs are still explainable.
	weak, err := svc.MatchFactors(context.Background(), "user-1", "proj-weak")
	if err != nil {
		t.Fatalf("MatchFactors(weak) error = %v", err)
	}
	if weak.Score >= int(matching.DefaultEligibilityThreshold) {
		t.Errorf("weak pair Score = %d, want below threshold", weak.Score)
	}

	if _, err := svc.MatchFactors(context.Background(), "user-1", "no-such-project"); !errors.IsNotFound(err) {
		t.Errorf("unknown project: got %v, want not-found error", err)
	}
}

func TestServiceRecordFeedback(t *testing.T) {
	st := seedStore()
	log := logger.Default()
	eventBus := bus.NewMemoryBus(log)
	defer eventBus.Close()

	var (
		mu        sync.Mutex
		published int
	)
	eventBus.Subscribe(context.Background(), bus.TopicFeedbackRecorded, func(_ context.Context, _ bus.Event) error {
		mu.Lock()
		published++
		mu.Unlock()
		return nil
	})

	svc := newTestService(st, nil, eventBus)

	score := 4
	err := svc.RecordFeedback(context.Background(), analytics.FeedbackRecord{
		UserID:      "user-1",
		ProjectID:   "proj-go",
		ActionTaken: "applied",
		Score:       &score,
	})
	if err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}

	stored, err := st.FetchFeedback(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("FetchFeedback() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored %d feedback records, want 1", len(stored))
	}
	if stored[0].ActionTaken != "applied" {
		t.Errorf("ActionTaken = %q, want %q", stored[0].ActionTaken, "applied")
	}

	if !eventBus.DrainTimeout(time.Second) {
		t.Fatal("bus did not drain")
	}
	mu.Lock()
	defer mu.Unlock()
	if published != 1 {
		t.Errorf("published %d events, want 1", published)
	}
}

func TestServiceRecordFeedback_Validation(t *testing.T) {
	svc := newTestService(seedStore(), nil, nil)
	ctx := context.Background()

	badScore := 6
	tests := []struct {
		name string
		fb   analytics.FeedbackRecord
	}{
		{"missing user", analytics.FeedbackRecord{ProjectID: "proj-go", ActionTaken: "viewed"}},
		{"missing project", analytics.FeedbackRecord{UserID: "user-1", ActionTaken: "viewed"}},
		{"bad action", analytics.FeedbackRecord{UserID: "user-1", ProjectID: "proj-go", ActionTaken: "starred"}},
		{"score out of range", analytics.FeedbackRecord{UserID: "user-1", ProjectID: "proj-go", ActionTaken: "viewed", Score: &badScore}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.RecordFeedback(ctx, tt.fb); !errors.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestServiceRecommend_LimitTruncates(t *testing.T) {
	st := seedStore()

	// A second eligible project so the list has two entries before the limit.
	st.AddProject(matching.CandidateProject{
		ID:                      "proj-go-2",
		OwnerID:                 "owner-5",
		RequiredExperienceLevel: matching.LevelIntermediate,
		CurrentMembers:          1,
		MaximumMembers:          5,
		Topics:                  []matching.ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []matching.ProjectLanguage{
			{Name: "go", RequiredLevel: matching.NamedLevel(matching.LevelIntermediate), IsPrimary: true},
		},
	})

	svc := newTestService(st, nil, nil)

	ranked, err := svc.Recommend(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Errorf("got %d recommendations, want 1", len(ranked))
	}

	// The limit only shapes the response; every eligible candidate is
	// upserted as a historical recommendation.
	if got := st.RecommendationCount("user-1"); got != 2 {
		t.Errorf("stored %d recommendations, want 2", got)
	}
}

func TestServiceRecommend_PersistsFullRankedList(t *testing.T) {
	st := seedStore()

	for _, id := range []string{"proj-go-2", "proj-go-3"} {
		st.AddProject(matching.CandidateProject{
			ID:                      id,
			OwnerID:                 "owner-6",
			RequiredExperienceLevel: matching.LevelIntermediate,
			CurrentMembers:          1,
			MaximumMembers:          5,
			Topics:                  []matching.ProjectTopic{{Name: "web", IsPrimary: true}},
			Languages: []matching.ProjectLanguage{
				{Name: "go", RequiredLevel: matching.NamedLevel(matching.LevelIntermediate), IsPrimary: true},
			},
		})
	}

	svc := newTestService(st, nil, nil)

	ranked, err := svc.Recommend(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(ranked))
	}

	history, err := st.FetchRecommendationHistory(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("FetchRecommendationHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Errorf("persisted %d records, want all 3 eligible candidates", len(history))
	}
}

func TestServiceRecommend_FeedbackInvalidatesCache(t *testing.T) {
	st := seedStore()
	svc := newTestService(st, cache.NewMemoryCache(100), nil)
	ctx := context.Background()

	if _, err := svc.Recommend(ctx, "user-1", 10); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if _, ok := svc.cachedList(ctx, "user-1"); !ok {
		t.Fatal("expected a cached list after Recommend")
	}

	err := svc.RecordFeedback(ctx, analytics.FeedbackRecord{
		UserID:      "user-1",
		ProjectID:   "proj-go",
		ActionTaken: "joined",
	})
	if err != nil {
		t.Fatalf("RecordFeedback() error = %v", err)
	}

	if _, ok := svc.cachedList(ctx, "user-1"); ok {
		t.Error("cached list should be invalidated after feedback")
	}
}
