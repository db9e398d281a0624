package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillmatch/skill-match/internal/pkg/errors"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
)

// Store is the slice of the data layer the analyzer reads from.
type Store interface {
	// FetchRecommendationHistory returns recommendations made within
	// the window ending now.
	FetchRecommendationHistory(ctx context.Context, window time.Duration) ([]RecommendationRecord, error)

	// FetchFeedback returns feedback recorded within the window.
	FetchFeedback(ctx context.Context, window time.Duration) ([]FeedbackRecord, error)

	// FetchChallengeAttempts returns challenge attempts within the
	// window.
	FetchChallengeAttempts(ctx context.Context, window time.Duration) ([]ChallengeAttempt, error)

	// FetchMembership returns a user's membership on a project, or
	// nil if none exists.
	FetchMembership(ctx context.Context, userID, projectID string) (*Membership, error)
}

// Config holds analyzer settings.
type Config struct {
	// DefaultWindow is used when a request omits the timeframe,
	// e.g. "30 days".
	DefaultWindow string

	// MockFallback enables the fixed fixture matrix when a window
	// holds no classifiable records.
	MockFallback bool
}

// Analyzer builds confusion matrices and effectiveness metrics from
// historical records.
type Analyzer struct {
	store Store
	cfg   Config
	log   *logger.Logger
}

// NewAnalyzer creates an analyzer over the given store.
func NewAnalyzer(store Store, cfg Config, log *logger.Logger) *Analyzer {
	if cfg.DefaultWindow == "" {
		cfg.DefaultWindow = "30 days"
	}
	return &Analyzer{
		store: store,
		cfg:   cfg,
		log:   log.WithComponent("analytics"),
	}
}

// ParseWindow converts a timeframe string like "30 days" or "1 week"
// into a duration. Months count as 30 days.
func ParseWindow(s string) (time.Duration, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) != 2 {
		return 0, errors.ValidationError(fmt.Sprintf("invalid timeframe %q, expected e.g. \"30 days\"", s))
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, errors.ValidationError(fmt.Sprintf("invalid timeframe count %q", fields[0]))
	}

	var unit time.Duration
	switch strings.TrimSuffix(fields[1], "s") {
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	default:
		return 0, errors.ValidationError(fmt.Sprintf("invalid timeframe unit %q", fields[1]))
	}

	return time.Duration(n) * unit, nil
}

// membershipLookup wraps the store's membership fetch so classification
// stays fail-soft: lookup errors log and read as "no data".
func (a *Analyzer) membershipLookup() MembershipLookup {
	return func(ctx context.Context, userID, projectID string) (*Membership, error) {
		m, err := a.store.FetchMembership(ctx, userID, projectID)
		if err != nil {
			a.log.Warn("membership lookup failed",
				"user_id", userID,
				"project_id", projectID,
				"error", err.Error(),
			)
			return nil, nil
		}
		return m, nil
	}
}

// RecommendationMatrix builds the recommendation confusion matrix over
// the given timeframe (empty string uses the configured default).
func (a *Analyzer) RecommendationMatrix(ctx context.Context, timeframe string) (*ConfusionMatrix, error) {
	window, err := a.resolveWindow(timeframe)
	if err != nil {
		return nil, err
	}

	var (
		records  []RecommendationRecord
		feedback []FeedbackRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = a.store.FetchRecommendationHistory(gctx, window)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = a.store.FetchFeedback(gctx, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.DataUnavailableError("failed to fetch recommendation history", err)
	}

	records = JoinFeedback(records, feedback)
	matrix := BuildRecommendationMatrix(ctx, records, a.membershipLookup(), a.log)
	matrix.Window = window

	if matrix.IsZero() && a.cfg.MockFallback {
		a.log.Info("no classifiable recommendations in window, using mock matrix",
			"window", window.String(),
		)
		mock := MockRecommendationMatrix()
		mock.Window = window
		return mock, nil
	}

	return matrix, nil
}

// AssessmentMatrix builds the assessment confusion matrix over the
// given timeframe (empty string uses the configured default).
func (a *Analyzer) AssessmentMatrix(ctx context.Context, timeframe string) (*ConfusionMatrix, error) {
	window, err := a.resolveWindow(timeframe)
	if err != nil {
		return nil, err
	}

	attempts, err := a.store.FetchChallengeAttempts(ctx, window)
	if err != nil {
		return nil, errors.DataUnavailableError("failed to fetch challenge attempts", err)
	}

	matrix := BuildAssessmentMatrix(ctx, attempts, a.membershipLookup(), a.log)
	matrix.Window = window

	if matrix.IsZero() && a.cfg.MockFallback {
		a.log.Info("no challenge attempts in window, using mock matrix",
			"window", window.String(),
		)
		mock := MockAssessmentMatrix()
		mock.Window = window
		return mock, nil
	}

	return matrix, nil
}

// EffectivenessReport carries the derived metrics for both matrices
// along with the source of each.
type EffectivenessReport struct {
	Recommendation       Metrics `json:"recommendation"`
	Assessment           Metrics `json:"assessment"`
	RecommendationSource Source  `json:"recommendation_source"`
	AssessmentSource     Source  `json:"assessment_source"`
	GeneratedAt          string  `json:"generated_at"`
}

// Effectiveness builds both matrices over the default window and
// derives accuracy, precision, recall and F1 for each.
func (a *Analyzer) Effectiveness(ctx context.Context) (*EffectivenessReport, error) {
	var (
		recMatrix    *ConfusionMatrix
		assessMatrix *ConfusionMatrix
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recMatrix, err = a.RecommendationMatrix(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		assessMatrix, err = a.AssessmentMatrix(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &EffectivenessReport{
		Recommendation:       ComputeMetrics(recMatrix),
		Assessment:           ComputeMetrics(assessMatrix),
		RecommendationSource: recMatrix.Source,
		AssessmentSource:     assessMatrix.Source,
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (a *Analyzer) resolveWindow(timeframe string) (time.Duration, error) {
	if timeframe == "" {
		timeframe = a.cfg.DefaultWindow
	}
	return ParseWindow(timeframe)
}
