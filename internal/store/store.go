// Package store provides data access for user profiles, candidate
// projects, persisted recommendations and the historical records the
// analytics engine reads.
package store

import (
	"context"
	"time"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/matching"
)

// Store is the data-access boundary of the recommendation core. All
// implementations must be safe for concurrent use.
type Store interface {
	// FetchUserProfile loads a user's skill profile. Returns a
	// not-found error when the user does not exist.
	FetchUserProfile(ctx context.Context, userID string) (*matching.UserProfile, error)

	// FetchCandidateProjects returns recruiting projects for the user,
	// pre-filtered to recruiting status. Callers still exclude owned,
	// joined and full projects.
	FetchCandidateProjects(ctx context.Context, userID string) ([]matching.CandidateProject, error)

	// FetchMemberProjectIDs returns the IDs of projects the user is a
	// member of, used for candidate exclusion.
	FetchMemberProjectIDs(ctx context.Context, userID string) (map[string]bool, error)

	// UpsertRecommendations stores the full ranked list for a user.
	// Idempotent on (userID, projectID): re-running updates score and
	// timestamp instead of duplicating.
	UpsertRecommendations(ctx context.Context, userID string, candidates []matching.ScoredCandidate) error

	// FetchRecommendationHistory returns recommendations made within
	// the window ending now.
	FetchRecommendationHistory(ctx context.Context, window time.Duration) ([]analytics.RecommendationRecord, error)

	// FetchFeedback returns feedback recorded within the window.
	FetchFeedback(ctx context.Context, window time.Duration) ([]analytics.FeedbackRecord, error)

	// RecordFeedback stores one explicit feedback event on a
	// recommendation.
	RecordFeedback(ctx context.Context, fb analytics.FeedbackRecord) error

	// FetchChallengeAttempts returns challenge attempts within the
	// window.
	FetchChallengeAttempts(ctx context.Context, window time.Duration) ([]analytics.ChallengeAttempt, error)

	// FetchMembership returns a user's membership on a project, or nil
	// if none exists.
	FetchMembership(ctx context.Context, userID, projectID string) (*analytics.Membership, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close()
}
