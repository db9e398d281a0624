package analytics

import (
	"context"

	"github.com/skillmatch/skill-match/internal/pkg/logger"
)

// Score thresholds for bucket classification.
const (
	highConfidenceMin   = 85.0
	mediumConfidenceMin = 70.0
	lowConfidenceMin    = 50.0

	predictedSuccessMin  = 80.0
	predictedModerateMin = 60.0

	positiveFeedbackMin = 4
	neutralFeedbackMin  = 3

	actualSuccessContributionMin  = 80.0
	actualModerateContributionMin = 50.0

	actualSuccessScoreMin  = 80.0
	actualModerateScoreMin = 60.0

	// Blend shares for the no-membership assessment fallback.
	attemptScoreShare = 0.7
	passRateShare     = 0.3
)

// MembershipLookup resolves a user's membership on a project. A nil
// result with nil error means no membership exists.
type MembershipLookup func(ctx context.Context, userID, projectID string) (*Membership, error)

// ClassifyConfidence maps a recommendation score to its predicted
// bucket. Scores below 50 are unclassified and excluded from matrices.
func ClassifyConfidence(score float64) (string, bool) {
	switch {
	case score >= highConfidenceMin:
		return BucketHighConfidence, true
	case score >= mediumConfidenceMin:
		return BucketMediumConfidence, true
	case score >= lowConfidenceMin:
		return BucketLowConfidence, true
	default:
		return "", false
	}
}

// ClassifyAttempt maps a challenge-attempt score to its predicted
// bucket. Every attempt classifies; there is no excluded range.
func ClassifyAttempt(score float64) string {
	switch {
	case score >= predictedSuccessMin:
		return BucketPredictedSuccess
	case score >= predictedModerateMin:
		return BucketPredictedModerate
	default:
		return BucketPredictedFailure
	}
}

// outcomeRule is one step of the ordered outcome-classification chain.
// Rules run in order; the first one that applies decides the bucket.
type outcomeRule struct {
	name  string
	apply func(ctx context.Context, rec *RecommendationRecord, members MembershipLookup) (string, bool)
}

// outcomeRules is the decision list for recommendation outcomes.
// Explicit feedback beats inferred signals; the last rule always
// applies, so no record is left unclassified.
var outcomeRules = []outcomeRule{
	{
		name: "feedback_score",
		apply: func(_ context.Context, rec *RecommendationRecord, _ MembershipLookup) (string, bool) {
			if rec.Feedback == nil || rec.Feedback.Score == nil {
				return "", false
			}
			switch {
			case *rec.Feedback.Score >= positiveFeedbackMin:
				return OutcomePositive, true
			case *rec.Feedback.Score >= neutralFeedbackMin:
				return OutcomeNeutral, true
			default:
				return OutcomeNegative, true
			}
		},
	},
	{
		name: "feedback_action",
		apply: func(_ context.Context, rec *RecommendationRecord, _ MembershipLookup) (string, bool) {
			if rec.Feedback == nil {
				return "", false
			}
			switch rec.Feedback.ActionTaken {
			case ActionJoined, ActionApplied:
				return OutcomePositive, true
			case ActionViewed:
				return OutcomeNeutral, true
			case ActionIgnored:
				return OutcomeNegative, true
			default:
				return "", false
			}
		},
	},
	{
		name: "membership",
		apply: func(ctx context.Context, rec *RecommendationRecord, members MembershipLookup) (string, bool) {
			if members == nil {
				return "", false
			}
			m, err := members(ctx, rec.UserID, rec.ProjectID)
			if err != nil || m == nil {
				// Lookup failure is treated as no data; the chain
				// falls through to the engagement rule.
				return "", false
			}
			if m.Status == MembershipActive {
				return OutcomePositive, true
			}
			return "", false
		},
	},
	{
		name: "engagement",
		apply: func(_ context.Context, rec *RecommendationRecord, _ MembershipLookup) (string, bool) {
			switch {
			case rec.AppliedAt != nil:
				return OutcomePositive, true
			case rec.ClickedAt != nil || rec.ViewedAt != nil:
				return OutcomeNeutral, true
			default:
				return OutcomeNegative, true
			}
		},
	},
}

// ClassifyOutcome runs the recommendation record through the ordered
// rule chain and returns the actual-outcome bucket.
func ClassifyOutcome(ctx context.Context, rec *RecommendationRecord, members MembershipLookup) string {
	for _, rule := range outcomeRules {
		if bucket, ok := rule.apply(ctx, rec, members); ok {
			return bucket
		}
	}
	return OutcomeNegative
}

// ClassifyAttemptOutcome determines the actual bucket for a challenge
// attempt. Membership ground truth wins when present; otherwise the
// attempt score and test pass rate are blended.
func ClassifyAttemptOutcome(ctx context.Context, attempt *ChallengeAttempt, members MembershipLookup) string {
	if members != nil {
		m, err := members(ctx, attempt.UserID, attempt.ProjectID)
		if err == nil && m != nil {
			switch {
			case m.Status == MembershipActive && m.ContributionScore >= actualSuccessContributionMin:
				return OutcomeActualSuccess
			case m.ContributionScore >= actualModerateContributionMin:
				return OutcomeActualModerate
			default:
				return OutcomeActualFailure
			}
		}
	}

	passRate := 0.0
	if attempt.TotalTestCases > 0 {
		passRate = float64(attempt.TestCasesPassed) / float64(attempt.TotalTestCases) * 100
	}
	final := attemptScoreShare*attempt.Score + passRateShare*passRate

	switch {
	case final >= actualSuccessScoreMin && attempt.Status == StatusPassed:
		return OutcomeActualSuccess
	case final >= actualModerateScoreMin:
		return OutcomeActualModerate
	default:
		return OutcomeActualFailure
	}
}

// JoinFeedback attaches feedback records to recommendation records by
// (userID, projectID). Records keep any feedback already linked.
func JoinFeedback(records []RecommendationRecord, feedback []FeedbackRecord) []RecommendationRecord {
	if len(feedback) == 0 {
		return records
	}

	byKey := make(map[[2]string]*FeedbackRecord, len(feedback))
	for i := range feedback {
		fb := &feedback[i]
		byKey[[2]string{fb.UserID, fb.ProjectID}] = fb
	}

	for i := range records {
		if records[i].Feedback != nil {
			continue
		}
		if fb, ok := byKey[[2]string{records[i].UserID, records[i].ProjectID}]; ok {
			records[i].Feedback = fb
		}
	}
	return records
}

// BuildRecommendationMatrix classifies every record with a classifiable
// predicted bucket and accumulates the 3x3 confusion matrix.
func BuildRecommendationMatrix(ctx context.Context, records []RecommendationRecord, members MembershipLookup, log *logger.Logger) *ConfusionMatrix {
	matrix := NewConfusionMatrix(KindRecommendation)

	for i := range records {
		rec := &records[i]

		predicted, ok := ClassifyConfidence(rec.Score)
		if !ok {
			continue
		}

		actual := ClassifyOutcome(ctx, rec, members)
		matrix.Increment(predicted, actual)
	}

	if log != nil {
		log.Debug("built recommendation confusion matrix",
			"records", len(records),
			"classified", matrix.Total(),
		)
	}

	return matrix
}

// BuildAssessmentMatrix accumulates the assessment confusion matrix
// from challenge attempts. Every attempt is classifiable.
func BuildAssessmentMatrix(ctx context.Context, attempts []ChallengeAttempt, members MembershipLookup, log *logger.Logger) *ConfusionMatrix {
	matrix := NewConfusionMatrix(KindAssessment)

	for i := range attempts {
		attempt := &attempts[i]

		predicted := ClassifyAttempt(attempt.Score)
		actual := ClassifyAttemptOutcome(ctx, attempt, members)
		matrix.Increment(predicted, actual)
	}

	if log != nil {
		log.Debug("built assessment confusion matrix",
			"attempts", len(attempts),
			"classified", matrix.Total(),
		)
	}

	return matrix
}

// MockRecommendationMatrix returns the fixed cold-start fixture used
// when a window holds no classifiable recommendation records.
func MockRecommendationMatrix() *ConfusionMatrix {
	return &ConfusionMatrix{
		Kind:   KindRecommendation,
		Source: SourceMock,
		Cells: map[string]map[string]int{
			BucketHighConfidence:   {OutcomePositive: 15, OutcomeNeutral: 5, OutcomeNegative: 2},
			BucketMediumConfidence: {OutcomePositive: 10, OutcomeNeutral: 8, OutcomeNegative: 4},
			BucketLowConfidence:    {OutcomePositive: 3, OutcomeNeutral: 12, OutcomeNegative: 8},
		},
	}
}

// MockAssessmentMatrix returns the fixed cold-start fixture used when
// a window holds no challenge attempts.
func MockAssessmentMatrix() *ConfusionMatrix {
	return &ConfusionMatrix{
		Kind:   KindAssessment,
		Source: SourceMock,
		Cells: map[string]map[string]int{
			BucketPredictedSuccess:  {OutcomeActualSuccess: 12, OutcomeActualModerate: 4, OutcomeActualFailure: 2},
			BucketPredictedModerate: {OutcomeActualSuccess: 5, OutcomeActualModerate: 9, OutcomeActualFailure: 4},
			BucketPredictedFailure:  {OutcomeActualSuccess: 1, OutcomeActualModerate: 5, OutcomeActualFailure: 7},
		},
	}
}
