package store

import (
	"context"
	"sync"
	"time"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/matching"
	apperrors "github.com/skillmatch/skill-match/internal/pkg/errors"
)

// MemoryStore keeps everything in memory. Used in tests and demo mode.
type MemoryStore struct {
	mu sync.RWMutex

	profiles map[string]matching.UserProfile
	projects []matching.CandidateProject
	members  map[string]map[string]analytics.Membership // userID -> projectID
	recs     map[string]map[string]storedRecommendation // userID -> projectID
	feedback []analytics.FeedbackRecord
	attempts []analytics.ChallengeAttempt
}

type storedRecommendation struct {
	candidate     matching.ScoredCandidate
	recommendedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]matching.UserProfile),
		members:  make(map[string]map[string]analytics.Membership),
		recs:     make(map[string]map[string]storedRecommendation),
	}
}

// AddUserProfile seeds a user profile.
func (m *MemoryStore) AddUserProfile(profile matching.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.ID] = profile
}

// AddProject seeds a candidate project.
func (m *MemoryStore) AddProject(project matching.CandidateProject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = append(m.projects, project)
}

// AddMembership seeds a project membership.
func (m *MemoryStore) AddMembership(userID, projectID string, membership analytics.Membership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[userID] == nil {
		m.members[userID] = make(map[string]analytics.Membership)
	}
	m.members[userID][projectID] = membership
}

// AddFeedback seeds a feedback record.
func (m *MemoryStore) AddFeedback(fb analytics.FeedbackRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, fb)
}

// AddChallengeAttempt seeds a challenge attempt.
func (m *MemoryStore) AddChallengeAttempt(attempt analytics.ChallengeAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
}

func (m *MemoryStore) FetchUserProfile(_ context.Context, userID string) (*matching.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, apperrors.NotFoundError("user")
	}
	copied := profile
	return &copied, nil
}

func (m *MemoryStore) FetchCandidateProjects(_ context.Context, _ string) ([]matching.CandidateProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make([]matching.CandidateProject, len(m.projects))
	copy(projects, m.projects)
	return projects, nil
}

func (m *MemoryStore) FetchMemberProjectIDs(_ context.Context, userID string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[string]bool, len(m.members[userID]))
	for projectID := range m.members[userID] {
		ids[projectID] = true
	}
	return ids, nil
}

func (m *MemoryStore) UpsertRecommendations(_ context.Context, userID string, candidates []matching.ScoredCandidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recs[userID] == nil {
		m.recs[userID] = make(map[string]storedRecommendation)
	}
	now := time.Now()
	for _, c := range candidates {
		m.recs[userID][c.ProjectID] = storedRecommendation{candidate: c, recommendedAt: now}
	}
	return nil
}

// RecommendationCount reports how many recommendations are stored for a
// user. Test helper.
func (m *MemoryStore) RecommendationCount(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs[userID])
}

func (m *MemoryStore) FetchRecommendationHistory(_ context.Context, window time.Duration) ([]analytics.RecommendationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	since := time.Now().Add(-window)
	records := []analytics.RecommendationRecord{}
	for userID, byProject := range m.recs {
		for projectID, rec := range byProject {
			if rec.recommendedAt.Before(since) {
				continue
			}
			records = append(records, analytics.RecommendationRecord{
				UserID:        userID,
				ProjectID:     projectID,
				Score:         float64(rec.candidate.Score),
				RecommendedAt: rec.recommendedAt,
			})
		}
	}
	return records, nil
}

func (m *MemoryStore) FetchFeedback(_ context.Context, _ time.Duration) ([]analytics.FeedbackRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	feedback := make([]analytics.FeedbackRecord, len(m.feedback))
	copy(feedback, m.feedback)
	return feedback, nil
}

func (m *MemoryStore) RecordFeedback(_ context.Context, fb analytics.FeedbackRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, fb)
	return nil
}

func (m *MemoryStore) FetchChallengeAttempts(_ context.Context, window time.Duration) ([]analytics.ChallengeAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	since := time.Now().Add(-window)
	attempts := []analytics.ChallengeAttempt{}
	for _, a := range m.attempts {
		if a.AttemptedAt.IsZero() || !a.AttemptedAt.Before(since) {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

func (m *MemoryStore) FetchMembership(_ context.Context, userID, projectID string) (*analytics.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	membership, ok := m.members[userID][projectID]
	if !ok {
		return nil, nil
	}
	copied := membership
	return &copied, nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryStore) Close() {}
