// Package analytics builds confusion matrices over historical
// recommendation and assessment outcomes and derives effectiveness
// metrics from them.
package analytics

import "time"

// MatrixKind identifies which bucket vocabulary a matrix uses.
type MatrixKind string

const (
	// KindRecommendation buckets recommendation confidence against
	// observed user outcomes.
	KindRecommendation MatrixKind = "recommendation"

	// KindAssessment buckets challenge-score predictions against actual
	// project performance.
	KindAssessment MatrixKind = "assessment"
)

// Source marks whether a matrix was built from real records or is the
// cold-start fallback fixture.
type Source string

const (
	// SourceReal marks a matrix aggregated from stored records.
	SourceReal Source = "real"

	// SourceMock marks the fixed fallback matrix returned when the
	// window holds no classifiable records.
	SourceMock Source = "mock"
)

// Recommendation confidence buckets (predicted).
const (
	BucketHighConfidence   = "high_confidence"
	BucketMediumConfidence = "medium_confidence"
	BucketLowConfidence    = "low_confidence"
)

// Recommendation outcome buckets (actual).
const (
	OutcomePositive = "positive"
	OutcomeNeutral  = "neutral"
	OutcomeNegative = "negative"
)

// Assessment prediction buckets (predicted).
const (
	BucketPredictedSuccess  = "predicted_success"
	BucketPredictedModerate = "predicted_moderate"
	BucketPredictedFailure  = "predicted_failure"
)

// Assessment outcome buckets (actual).
const (
	OutcomeActualSuccess  = "actual_success"
	OutcomeActualModerate = "actual_moderate"
	OutcomeActualFailure  = "actual_failure"
)

// RecommendationBuckets lists the predicted and actual buckets of a
// recommendation matrix, in display order.
var (
	RecommendationPredicted = []string{BucketHighConfidence, BucketMediumConfidence, BucketLowConfidence}
	RecommendationActual    = []string{OutcomePositive, OutcomeNeutral, OutcomeNegative}

	AssessmentPredicted = []string{BucketPredictedSuccess, BucketPredictedModerate, BucketPredictedFailure}
	AssessmentActual    = []string{OutcomeActualSuccess, OutcomeActualModerate, OutcomeActualFailure}
)

// ConfusionMatrix is a 3x3 count of predicted bucket vs actual bucket.
type ConfusionMatrix struct {
	// Kind selects the bucket vocabulary.
	Kind MatrixKind `json:"kind"`

	// Source distinguishes real aggregates from the mock fallback.
	Source Source `json:"source"`

	// Window is the time window the matrix covers.
	Window time.Duration `json:"-"`

	// Cells maps predicted bucket -> actual bucket -> count.
	Cells map[string]map[string]int `json:"cells"`
}

// NewConfusionMatrix creates an all-zero matrix of the given kind.
func NewConfusionMatrix(kind MatrixKind) *ConfusionMatrix {
	predicted, actual := bucketsFor(kind)

	cells := make(map[string]map[string]int, len(predicted))
	for _, p := range predicted {
		row := make(map[string]int, len(actual))
		for _, a := range actual {
			row[a] = 0
		}
		cells[p] = row
	}

	return &ConfusionMatrix{
		Kind:   kind,
		Source: SourceReal,
		Cells:  cells,
	}
}

func bucketsFor(kind MatrixKind) (predicted, actual []string) {
	if kind == KindAssessment {
		return AssessmentPredicted, AssessmentActual
	}
	return RecommendationPredicted, RecommendationActual
}

// Increment adds one observation to a cell. Unknown buckets are ignored
// so a malformed record cannot grow the matrix beyond 3x3.
func (m *ConfusionMatrix) Increment(predicted, actual string) {
	row, ok := m.Cells[predicted]
	if !ok {
		return
	}
	if _, ok := row[actual]; !ok {
		return
	}
	row[actual]++
}

// Total returns the sum of all nine cells.
func (m *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range m.Cells {
		for _, count := range row {
			total += count
		}
	}
	return total
}

// IsZero reports whether every cell is zero.
func (m *ConfusionMatrix) IsZero() bool {
	return m.Total() == 0
}

// RecommendationRecord is one historical recommendation with its
// engagement timestamps and optional linked feedback.
type RecommendationRecord struct {
	// UserID is the recommended-to user.
	UserID string `json:"user_id"`

	// ProjectID is the recommended project.
	ProjectID string `json:"project_id"`

	// Score is the recommendation score at the time (0-100).
	Score float64 `json:"score"`

	// RecommendedAt is when the recommendation was made.
	RecommendedAt time.Time `json:"recommended_at"`

	// ViewedAt is when the user viewed it, if ever.
	ViewedAt *time.Time `json:"viewed_at,omitempty"`

	// ClickedAt is when the user clicked through, if ever.
	ClickedAt *time.Time `json:"clicked_at,omitempty"`

	// AppliedAt is when the user applied, if ever.
	AppliedAt *time.Time `json:"applied_at,omitempty"`

	// Feedback is the linked explicit feedback, if any.
	Feedback *FeedbackRecord `json:"feedback,omitempty"`
}

// Feedback actions a user can take on a recommendation.
const (
	ActionViewed  = "viewed"
	ActionApplied = "applied"
	ActionJoined  = "joined"
	ActionIgnored = "ignored"
)

// FeedbackRecord is explicit user feedback on a recommendation.
type FeedbackRecord struct {
	// UserID is the user who gave feedback.
	UserID string `json:"user_id"`

	// ProjectID is the project the feedback concerns.
	ProjectID string `json:"project_id"`

	// ActionTaken is one of viewed, applied, joined, ignored.
	ActionTaken string `json:"action_taken"`

	// Score is the 1-5 explicit rating, when given.
	Score *int `json:"score,omitempty"`
}

// ChallengeAttempt is one historical coding-challenge attempt.
type ChallengeAttempt struct {
	// UserID is the user who attempted the challenge.
	UserID string `json:"user_id"`

	// ProjectID is the project the challenge belongs to.
	ProjectID string `json:"project_id"`

	// Score is the challenge score (0-100).
	Score float64 `json:"score"`

	// TestCasesPassed is how many test cases passed.
	TestCasesPassed int `json:"test_cases_passed"`

	// TotalTestCases is how many test cases were run.
	TotalTestCases int `json:"total_test_cases"`

	// Status is "passed" or "failed".
	Status string `json:"status"`

	// AttemptedAt is when the attempt happened.
	AttemptedAt time.Time `json:"attempted_at"`
}

// Challenge attempt statuses.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Membership is a user's standing on a project, used as ground truth
// for outcome classification.
type Membership struct {
	// Status is the membership status, e.g. "active".
	Status string `json:"status"`

	// ContributionScore is the member's contribution score (0-100).
	ContributionScore float64 `json:"contribution_score"`
}

// MembershipActive is the status of a member in good standing.
const MembershipActive = "active"

// Metrics are the derived effectiveness numbers for one matrix.
type Metrics struct {
	// Accuracy is the share of records on the correct-prediction
	// diagonal (0-1, rounded to 2 decimals).
	Accuracy float64 `json:"accuracy"`

	// Precision over the binary high-confidence/success reduction.
	Precision float64 `json:"precision"`

	// Recall over the binary high-confidence/success reduction.
	Recall float64 `json:"recall"`

	// F1 is the harmonic mean of precision and recall.
	F1 float64 `json:"f1"`
}
