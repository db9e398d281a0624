// Package recommend implements the recommendation pipeline: fetch a
// user's profile and candidate projects, score and filter candidates,
// diversify the ranking, and persist the result.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/bus"
	"github.com/skillmatch/skill-match/internal/cache"
	"github.com/skillmatch/skill-match/internal/matching"
	"github.com/skillmatch/skill-match/internal/matching/rerank"
	"github.com/skillmatch/skill-match/internal/metrics"
	"github.com/skillmatch/skill-match/internal/pkg/errors"
	"github.com/skillmatch/skill-match/internal/pkg/hash"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
	"github.com/skillmatch/skill-match/internal/store"
)

// DefaultLimit is the recommendation list size when the caller does not
// specify one.
const DefaultLimit = 10

// DefaultCacheTTL bounds how stale a cached recommendation list may be.
const DefaultCacheTTL = 5 * time.Minute

// validFeedbackActions are the accepted feedback action values.
var validFeedbackActions = map[string]bool{
	"viewed":  true,
	"applied": true,
	"joined":  true,
	"ignored": true,
}

// Config holds recommendation service settings.
type Config struct {
	// DefaultLimit is the list size when a request does not set one.
	DefaultLimit int

	// CacheTTL is how long computed lists stay cached.
	CacheTTL time.Duration
}

// Service orchestrates the recommendation pipeline.
type Service struct {
	store   store.Store
	cache   cache.Cache
	bus     bus.Bus
	scorer  *matching.Scorer
	ranker  *rerank.Ranker
	metrics *metrics.Metrics
	log     *logger.Logger
	cfg     Config
}

// NewService creates a recommendation service. cache, eventBus and m
// are optional; nil values disable caching, event publishing and
// metrics respectively.
func NewService(st store.Store, c cache.Cache, eventBus bus.Bus, scorer *matching.Scorer, ranker *rerank.Ranker, m *metrics.Metrics, log *logger.Logger, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:   st,
		cache:   c,
		bus:     eventBus,
		scorer:  scorer,
		ranker:  ranker,
		metrics: m,
		log:     log.WithComponent("recommend"),
		cfg:     cfg,
	}
}

// Recommend returns the top recommendations for a user, computing and
// persisting a fresh list on cache miss.
func (s *Service) Recommend(ctx context.Context, userID string, limit int) ([]matching.ScoredCandidate, error) {
	if userID == "" {
		return nil, errors.ValidationError("user_id is required")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	start := time.Now()

	if cached, ok := s.cachedList(ctx, userID); ok {
		s.recordCacheHit(true)
		return truncated(cached, limit), nil
	}
	s.recordCacheHit(false)

	ranked, err := s.Compute(ctx, userID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRecommendation(time.Since(start).Milliseconds(), 0, err)
		}
		return nil, err
	}

	// The full ranked permutation is persisted; only the response is
	// limited. Below-limit entries still count as historical
	// recommendations for effectiveness analytics.
	if err := s.Persist(ctx, userID, ranked); err != nil {
		// The list is still valid; persistence failures are logged and
		// surfaced through metrics, not returned to the user.
		s.log.WithUser(userID).Warn("failed to persist recommendations", "error", err.Error())
	}

	top := truncated(ranked, limit)
	if s.metrics != nil {
		s.metrics.RecordRecommendation(time.Since(start).Milliseconds(), len(top), nil)
	}
	return top, nil
}

func truncated(ranked []matching.ScoredCandidate, limit int) []matching.ScoredCandidate {
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// Compute runs the pure pipeline: fetch, filter, score, rerank. It does
// not touch the cache, the database write path, or the bus.
func (s *Service) Compute(ctx context.Context, userID string) ([]matching.ScoredCandidate, error) {
	fetchStart := time.Now()

	profile, err := s.store.FetchUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		candidates []matching.CandidateProject
		memberIDs  map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidates, err = s.store.FetchCandidateProjects(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		memberIDs, err = s.store.FetchMemberProjectIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.recordStage("fetch", fetchStart)

	scoreStart := time.Now()
	scored := make([]matching.ScoredCandidate, 0, len(candidates))
	considered := 0
	for _, project := range candidates {
		if project.OwnerID == userID || memberIDs[project.ID] || project.IsFull() {
			continue
		}
		considered++
		if candidate, ok := s.scorer.ScoreCandidate(*profile, project); ok {
			scored = append(scored, candidate)
		}
	}
	if s.metrics != nil {
		s.metrics.RecordScoring(considered, len(scored))
	}
	s.recordStage("score", scoreStart)

	// Stable relevance order in, so MMR tie-breaks are deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	rerankStart := time.Now()
	ranked := s.ranker.Rerank(scored)
	if s.metrics != nil {
		s.metrics.RecordRerank(len(ranked), time.Since(rerankStart).Milliseconds())
	}
	s.recordStage("rerank", rerankStart)

	s.log.WithUser(userID).Debug("computed recommendations",
		"candidates", len(candidates),
		"considered", considered,
		"eligible", len(scored),
	)
	return ranked, nil
}

// Persist stores the full ranked list, refreshes the cache, and
// announces the new list on the bus.
func (s *Service) Persist(ctx context.Context, userID string, ranked []matching.ScoredCandidate) error {
	persistStart := time.Now()
	defer s.recordStage("persist", persistStart)

	if err := s.store.UpsertRecommendations(ctx, userID, ranked); err != nil {
		return err
	}

	if s.cache != nil {
		if data, err := json.Marshal(ranked); err == nil {
			if err := s.cache.Set(ctx, listCacheKey(userID), data, s.cfg.CacheTTL); err != nil {
				s.log.WithUser(userID).Warn("failed to cache recommendations", "error", err.Error())
			}
		}
	}

	if s.bus != nil {
		projectIDs := make([]string, len(ranked))
		for i, c := range ranked {
			projectIDs[i] = c.ProjectID
		}
		event := bus.NewEvent(bus.TopicRecommendationsGenerated, map[string]any{
			"user_id":     userID,
			"count":       len(ranked),
			"project_ids": projectIDs,
		})
		if err := s.bus.Publish(ctx, bus.TopicRecommendationsGenerated, event); err != nil {
			s.log.WithUser(userID).Warn("failed to publish recommendations event", "error", err.Error())
		}
	}

	return nil
}

// MatchFactors scores a single user/project pair and returns the full
// factor breakdown, whether or not the pair clears the eligibility
// threshold.
func (s *Service) MatchFactors(ctx context.Context, userID, projectID string) (*matching.ScoredCandidate, error) {
	if userID == "" || projectID == "" {
		return nil, errors.ValidationError("user_id and project_id are required")
	}

	profile, err := s.store.FetchUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.store.FetchCandidateProjects(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, project := range candidates {
		if project.ID == projectID {
			candidate, _ := s.scorer.Explain(*profile, project)
			return &candidate, nil
		}
	}
	return nil, errors.NotFoundError("project")
}

// RecordFeedback validates and stores one explicit feedback event, then
// invalidates the user's cached list and publishes the event.
func (s *Service) RecordFeedback(ctx context.Context, fb analytics.FeedbackRecord) error {
	if fb.UserID == "" || fb.ProjectID == "" {
		return errors.ValidationError("user_id and project_id are required")
	}
	if !validFeedbackActions[fb.ActionTaken] {
		return errors.ValidationError("action_taken must be one of viewed, applied, joined, ignored")
	}
	if fb.Score != nil && (*fb.Score < 1 || *fb.Score > 5) {
		return errors.ValidationError("score must be between 1 and 5")
	}

	if err := s.store.RecordFeedback(ctx, fb); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, listCacheKey(fb.UserID)); err != nil {
			s.log.WithUser(fb.UserID).Warn("failed to invalidate cached recommendations", "error", err.Error())
		}
	}

	if s.metrics != nil {
		s.metrics.RecordFeedback()
	}

	if s.bus != nil {
		event := bus.NewEvent(bus.TopicFeedbackRecorded, fb)
		if err := s.bus.Publish(ctx, bus.TopicFeedbackRecorded, event); err != nil {
			s.log.WithUser(fb.UserID).Warn("failed to publish feedback event", "error", err.Error())
		}
	}

	return nil
}

// cachedList returns the user's cached full ranked list, if any.
func (s *Service) cachedList(ctx context.Context, userID string) ([]matching.ScoredCandidate, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, ok, err := s.cache.Get(ctx, listCacheKey(userID))
	if err != nil || !ok {
		return nil, false
	}

	var ranked []matching.ScoredCandidate
	if err := json.Unmarshal(data, &ranked); err != nil {
		return nil, false
	}
	return ranked, true
}

func (s *Service) recordCacheHit(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit("recommendations")
	} else {
		s.metrics.RecordCacheMiss("recommendations")
	}
}

func (s *Service) recordStage(stage string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStage(stage, time.Since(start).Milliseconds())
	}
}

// listCacheKey derives the cache key for a user's full ranked list.
// The hashed profile key keeps keys a fixed, delimiter-safe length
// regardless of the raw user ID.
func listCacheKey(userID string) string {
	return fmt.Sprintf("recommendations:%s", hash.ProfileKey(userID))
}
