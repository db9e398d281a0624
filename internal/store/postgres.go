package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/matching"
	apperrors "github.com/skillmatch/skill-match/internal/pkg/errors"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
)

// QueryRecorder receives per-query measurements. The metrics package
// implements it; the indirection keeps store free of a metrics import.
type QueryRecorder interface {
	RecordQuery(query string, latencyMs int64, err error)
}

// PostgresStore is the pgx-backed Store implementation.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	log          *logger.Logger
	metrics      QueryRecorder
}

// PostgresConfig holds connection settings for the Postgres store.
type PostgresConfig struct {
	// URL is the connection string.
	URL string

	// MaxConns caps the connection pool size.
	MaxConns int

	// QueryTimeout bounds each individual query.
	QueryTimeout time.Duration
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, log *logger.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &PostgresStore{
		pool:         pool,
		queryTimeout: timeout,
		log:          log.WithComponent("store"),
	}, nil
}

// WithMetrics attaches a query recorder. Call before serving traffic.
func (s *PostgresStore) WithMetrics(rec QueryRecorder) *PostgresStore {
	s.metrics = rec
	return s
}

func (s *PostgresStore) observe(query string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordQuery(query, time.Since(start).Milliseconds(), err)
	}
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// FetchUserProfile loads a user and their topics and languages.
func (s *PostgresStore) FetchUserProfile(ctx context.Context, userID string) (*matching.UserProfile, error) {
	start := time.Now()
	profile, err := s.fetchUserProfile(ctx, userID)
	s.observe("fetch_user_profile", start, err)
	return profile, err
}

func (s *PostgresStore) fetchUserProfile(ctx context.Context, userID string) (*matching.UserProfile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profile := matching.UserProfile{ID: userID}

	err := s.pool.QueryRow(ctx,
		`SELECT years_experience FROM users WHERE id = $1`,
		userID,
	).Scan(&profile.YearsExperience)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFoundError("user")
		}
		return nil, apperrors.InternalError("failed to fetch user", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT name, interest_level, experience_level
		 FROM user_topics WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch user topics", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, interest, experience string
		if err := rows.Scan(&name, &interest, &experience); err != nil {
			return nil, apperrors.InternalError("failed to scan user topic", err)
		}
		profile.Topics = append(profile.Topics, matching.UserTopic{
			Name:            name,
			InterestLevel:   matching.ParseLevel(interest),
			ExperienceLevel: matching.ParseLevel(experience),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.InternalError("failed to read user topics", err)
	}

	langRows, err := s.pool.Query(ctx,
		`SELECT name, proficiency_level, years_experience
		 FROM user_languages WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch user languages", err)
	}
	defer langRows.Close()

	for langRows.Next() {
		var (
			name, proficiency string
			years             float64
		)
		if err := langRows.Scan(&name, &proficiency, &years); err != nil {
			return nil, apperrors.InternalError("failed to scan user language", err)
		}
		profile.Languages = append(profile.Languages, matching.UserLanguage{
			Name:             name,
			ProficiencyLevel: matching.ParseLevel(proficiency),
			YearsExperience:  years,
		})
	}
	if err := langRows.Err(); err != nil {
		return nil, apperrors.InternalError("failed to read user languages", err)
	}

	return &profile, nil
}

// FetchCandidateProjects returns recruiting projects with their topics
// and languages attached.
func (s *PostgresStore) FetchCandidateProjects(ctx context.Context, userID string) ([]matching.CandidateProject, error) {
	start := time.Now()
	projects, err := s.fetchCandidateProjects(ctx, userID)
	s.observe("fetch_candidate_projects", start, err)
	return projects, err
}

func (s *PostgresStore) fetchCandidateProjects(ctx context.Context, userID string) ([]matching.CandidateProject, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, required_experience_level,
		        current_members, maximum_members, owner_id
		 FROM projects
		 WHERE status = 'recruiting'`,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch candidate projects", err)
	}
	defer rows.Close()

	projects := []matching.CandidateProject{}
	index := map[string]int{}
	for rows.Next() {
		var p matching.CandidateProject
		var required string
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &required,
			&p.CurrentMembers, &p.MaximumMembers, &p.OwnerID); err != nil {
			return nil, apperrors.InternalError("failed to scan project", err)
		}
		p.RequiredExperienceLevel = matching.LevelName(required)
		index[p.ID] = len(projects)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.InternalError("failed to read projects", err)
	}

	if len(projects) == 0 {
		return projects, nil
	}

	topicRows, err := s.pool.Query(ctx,
		`SELECT pt.project_id, pt.name, pt.is_primary
		 FROM project_topics pt
		 JOIN projects p ON p.id = pt.project_id
		 WHERE p.status = 'recruiting'`,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch project topics", err)
	}
	defer topicRows.Close()

	for topicRows.Next() {
		var (
			projectID, name string
			isPrimary       bool
		)
		if err := topicRows.Scan(&projectID, &name, &isPrimary); err != nil {
			return nil, apperrors.InternalError("failed to scan project topic", err)
		}
		if i, ok := index[projectID]; ok {
			projects[i].Topics = append(projects[i].Topics, matching.ProjectTopic{
				Name:      name,
				IsPrimary: isPrimary,
			})
		}
	}
	if err := topicRows.Err(); err != nil {
		return nil, apperrors.InternalError("failed to read project topics", err)
	}

	langRows, err := s.pool.Query(ctx,
		`SELECT pl.project_id, pl.name, pl.required_level, pl.is_primary
		 FROM project_languages pl
		 JOIN projects p ON p.id = pl.project_id
		 WHERE p.status = 'recruiting'`,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch project languages", err)
	}
	defer langRows.Close()

	for langRows.Next() {
		var (
			projectID, name, required string
			isPrimary                 bool
		)
		if err := langRows.Scan(&projectID, &name, &required, &isPrimary); err != nil {
			return nil, apperrors.InternalError("failed to scan project language", err)
		}
		if i, ok := index[projectID]; ok {
			projects[i].Languages = append(projects[i].Languages, matching.ProjectLanguage{
				Name:          name,
				RequiredLevel: matching.ParseLevel(required),
				IsPrimary:     isPrimary,
			})
		}
	}
	if err := langRows.Err(); err != nil {
		return nil, apperrors.InternalError("failed to read project languages", err)
	}

	return projects, nil
}

// FetchMemberProjectIDs returns the set of project IDs the user belongs to.
func (s *PostgresStore) FetchMemberProjectIDs(ctx context.Context, userID string) (map[string]bool, error) {
	start := time.Now()
	ids, err := s.fetchMemberProjectIDs(ctx, userID)
	s.observe("fetch_member_project_ids", start, err)
	return ids, err
}

func (s *PostgresStore) fetchMemberProjectIDs(ctx context.Context, userID string) (map[string]bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT project_id FROM project_members WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, apperrors.InternalError("failed to fetch memberships", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.InternalError("failed to scan membership", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// UpsertRecommendations writes the ranked list in one transaction,
// updating score and timestamp on conflict.
func (s *PostgresStore) UpsertRecommendations(ctx context.Context, userID string, candidates []matching.ScoredCandidate) error {
	start := time.Now()
	err := s.upsertRecommendations(ctx, userID, candidates)
	s.observe("upsert_recommendations", start, err)
	return err
}

func (s *PostgresStore) upsertRecommendations(ctx context.Context, userID string, candidates []matching.ScoredCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperrors.InternalError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range candidates {
		factors, err := json.Marshal(c.MatchFactors)
		if err != nil {
			return apperrors.InternalError("failed to marshal match factors", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO recommendations (user_id, project_id, score, match_factors, technologies, recommended_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (user_id, project_id)
			 DO UPDATE SET score = $3, match_factors = $4, technologies = $5, recommended_at = NOW()`,
			userID, c.ProjectID, c.Score, factors, c.Technologies,
		)
		if err != nil {
			return apperrors.InternalError("failed to upsert recommendation", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.InternalError("failed to commit recommendations", err)
	}

	s.log.Debug("upserted recommendations", "user_id", userID, "count", len(candidates))
	return nil
}

// FetchRecommendationHistory returns recommendations within the window.
func (s *PostgresStore) FetchRecommendationHistory(ctx context.Context, window time.Duration) ([]analytics.RecommendationRecord, error) {
	start := time.Now()
	records, err := s.fetchRecommendationHistory(ctx, window)
	s.observe("fetch_recommendation_history", start, err)
	return records, err
}

func (s *PostgresStore) fetchRecommendationHistory(ctx context.Context, window time.Duration) ([]analytics.RecommendationRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, project_id, score, recommended_at, viewed_at, clicked_at, applied_at
		 FROM recommendations
		 WHERE recommended_at >= NOW() - make_interval(secs => $1)`,
		window.Seconds(),
	)
	if err != nil {
		return nil, apperrors.DataUnavailableError("failed to fetch recommendation history", err)
	}
	defer rows.Close()

	records := []analytics.RecommendationRecord{}
	for rows.Next() {
		var r analytics.RecommendationRecord
		if err := rows.Scan(&r.UserID, &r.ProjectID, &r.Score, &r.RecommendedAt,
			&r.ViewedAt, &r.ClickedAt, &r.AppliedAt); err != nil {
			return nil, apperrors.DataUnavailableError("failed to scan recommendation record", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// FetchFeedback returns feedback recorded within the window.
func (s *PostgresStore) FetchFeedback(ctx context.Context, window time.Duration) ([]analytics.FeedbackRecord, error) {
	start := time.Now()
	feedback, err := s.fetchFeedback(ctx, window)
	s.observe("fetch_feedback", start, err)
	return feedback, err
}

func (s *PostgresStore) fetchFeedback(ctx context.Context, window time.Duration) ([]analytics.FeedbackRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, project_id, action_taken, score
		 FROM recommendation_feedback
		 WHERE created_at >= NOW() - make_interval(secs => $1)`,
		window.Seconds(),
	)
	if err != nil {
		return nil, apperrors.DataUnavailableError("failed to fetch feedback", err)
	}
	defer rows.Close()

	feedback := []analytics.FeedbackRecord{}
	for rows.Next() {
		var f analytics.FeedbackRecord
		if err := rows.Scan(&f.UserID, &f.ProjectID, &f.ActionTaken, &f.Score); err != nil {
			return nil, apperrors.DataUnavailableError("failed to scan feedback record", err)
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}

// RecordFeedback stores one explicit feedback event.
func (s *PostgresStore) RecordFeedback(ctx context.Context, fb analytics.FeedbackRecord) error {
	start := time.Now()
	err := s.recordFeedback(ctx, fb)
	s.observe("record_feedback", start, err)
	return err
}

func (s *PostgresStore) recordFeedback(ctx context.Context, fb analytics.FeedbackRecord) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO recommendation_feedback (user_id, project_id, action_taken, score, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		fb.UserID, fb.ProjectID, fb.ActionTaken, fb.Score,
	)
	if err != nil {
		return apperrors.InternalError("failed to record feedback", err)
	}
	return nil
}

// FetchChallengeAttempts returns challenge attempts within the window.
func (s *PostgresStore) FetchChallengeAttempts(ctx context.Context, window time.Duration) ([]analytics.ChallengeAttempt, error) {
	start := time.Now()
	attempts, err := s.fetchChallengeAttempts(ctx, window)
	s.observe("fetch_challenge_attempts", start, err)
	return attempts, err
}

func (s *PostgresStore) fetchChallengeAttempts(ctx context.Context, window time.Duration) ([]analytics.ChallengeAttempt, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, project_id, score, test_cases_passed, total_test_cases, status, attempted_at
		 FROM challenge_attempts
		 WHERE attempted_at >= NOW() - make_interval(secs => $1)`,
		window.Seconds(),
	)
	if err != nil {
		return nil, apperrors.DataUnavailableError("failed to fetch challenge attempts", err)
	}
	defer rows.Close()

	attempts := []analytics.ChallengeAttempt{}
	for rows.Next() {
		var a analytics.ChallengeAttempt
		if err := rows.Scan(&a.UserID, &a.ProjectID, &a.Score, &a.TestCasesPassed,
			&a.TotalTestCases, &a.Status, &a.AttemptedAt); err != nil {
			return nil, apperrors.DataUnavailableError("failed to scan challenge attempt", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// FetchMembership returns a user's membership on one project, or nil.
func (s *PostgresStore) FetchMembership(ctx context.Context, userID, projectID string) (*analytics.Membership, error) {
	start := time.Now()
	m, err := s.fetchMembership(ctx, userID, projectID)
	s.observe("fetch_membership", start, err)
	return m, err
}

func (s *PostgresStore) fetchMembership(ctx context.Context, userID, projectID string) (*analytics.Membership, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var m analytics.Membership
	err := s.pool.QueryRow(ctx,
		`SELECT status, contribution_score
		 FROM project_members
		 WHERE user_id = $1 AND project_id = $2`,
		userID, projectID,
	).Scan(&m.Status, &m.ContributionScore)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, apperrors.InternalError("failed to fetch membership", err)
	}
	return &m, nil
}
