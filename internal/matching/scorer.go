package matching

import "math"

// Weights configures the aggregation of feature scores. The active
// weights deliberately sum to 0.78, not 1.0: InterestAffinity,
// PopularityBoost and RecencyBoost are declared but not yet applied,
// and renormalizing the active three would change which candidates
// clear the eligibility threshold.
type Weights struct {
	// TopicCoverage weights the topic-coverage score.
	TopicCoverage float64 `json:"topic_coverage" yaml:"topic_coverage"`

	// LanguageFit weights the language-proficiency score.
	LanguageFit float64 `json:"language_fit" yaml:"language_fit"`

	// DifficultyAlignment weights the difficulty-alignment score.
	DifficultyAlignment float64 `json:"difficulty_alignment" yaml:"difficulty_alignment"`

	// InterestAffinity is declared but not applied in aggregation.
	InterestAffinity float64 `json:"interest_affinity" yaml:"interest_affinity"`

	// PopularityBoost is declared but not applied in aggregation.
	PopularityBoost float64 `json:"popularity_boost" yaml:"popularity_boost"`

	// RecencyBoost is declared but not applied in aggregation.
	RecencyBoost float64 `json:"recency_boost" yaml:"recency_boost"`
}

// DefaultWeights returns the production aggregation weights.
func DefaultWeights() Weights {
	return Weights{
		TopicCoverage:       0.28,
		LanguageFit:         0.32,
		DifficultyAlignment: 0.18,
		InterestAffinity:    0.12,
		PopularityBoost:     0.05,
		RecencyBoost:        0.05,
	}
}

// DefaultEligibilityThreshold is the minimum aggregate score a
// candidate must reach to be recommended at all. Candidates below it
// are dropped, not returned as low-score results.
const DefaultEligibilityThreshold = 55.0

const (
	// primaryWeight is the weight of primary topics and languages.
	primaryWeight = 1.0
	// primaryBoost multiplies the weight of primary entries.
	primaryBoost = 1.5

	// topicExperienceShare and topicInterestShare blend a matched
	// topic's experience and interest into its contribution.
	topicExperienceShare = 0.6
	topicInterestShare   = 0.4

	// langLevelShare and langYearsShare blend declared proficiency and
	// years of practice into effective proficiency.
	langLevelShare = 0.7
	langYearsShare = 0.3

	// langYearsCeiling is the years of practice treated as full credit.
	langYearsCeiling = 6.0

	// langFitShare and langCoverageShare blend per-language fit and
	// overall coverage into the language score.
	langFitShare      = 0.85
	langCoverageShare = 0.15

	// difficultyStepPenalty is the score lost per level the user falls
	// short of the required experience level.
	difficultyStepPenalty = 22.0
)

// Scorer computes per-dimension feature scores for a user/project pair
// and aggregates them into a single recommendation score. Stateless and
// safe for concurrent use.
type Scorer struct {
	weights   Weights
	threshold float64
}

// NewScorer creates a scorer with the given weights. A zero Weights
// value falls back to the defaults.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Scorer{weights: w, threshold: DefaultEligibilityThreshold}
}

// WithThreshold overrides the eligibility threshold.
func (s *Scorer) WithThreshold(threshold float64) *Scorer {
	s.threshold = threshold
	return s
}

// Weights returns the scorer's aggregation weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Threshold returns the eligibility threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score computes the per-dimension feature scores for one candidate.
func (s *Scorer) Score(user UserProfile, project CandidateProject) FeatureSet {
	return FeatureSet{
		Topic:      scoreTopics(user, project),
		Language:   scoreLanguages(user, project),
		Difficulty: scoreDifficulty(user, project),
	}
}

// Aggregate folds a feature set into the final 0-100 score.
func (s *Scorer) Aggregate(f FeatureSet) float64 {
	score := s.weights.TopicCoverage*f.Topic.Score +
		s.weights.LanguageFit*f.Language.Score +
		s.weights.DifficultyAlignment*f.Difficulty
	return clamp(score, 0, 100)
}

// Eligible reports whether an aggregate score clears the threshold.
func (s *Scorer) Eligible(aggregate float64) bool {
	return aggregate >= s.threshold
}

// ScoreCandidate scores one candidate end to end. The boolean result is
// false when the candidate falls below the eligibility threshold.
func (s *Scorer) ScoreCandidate(user UserProfile, project CandidateProject) (ScoredCandidate, bool) {
	candidate, eligible := s.Explain(user, project)
	if !eligible {
		return ScoredCandidate{}, false
	}
	return candidate, true
}

// Explain scores one candidate without applying the eligibility
// threshold. The boolean result still reports eligibility, but the
// scored candidate is always returned, so callers can inspect the
// factors of arbitrary user/project pairs.
func (s *Scorer) Explain(user UserProfile, project CandidateProject) (ScoredCandidate, bool) {
	features := s.Score(user, project)
	aggregate := s.Aggregate(features)

	technologies := make([]string, 0, len(project.Languages))
	for _, pl := range project.Languages {
		technologies = append(technologies, pl.Name)
	}

	return ScoredCandidate{
		ProjectID:    project.ID,
		Score:        int(math.Round(aggregate)),
		MatchFactors: buildMatchFactors(user, project, features),
		Technologies: technologies,
	}, s.Eligible(aggregate)
}

// scoreTopics computes the weighted topic-coverage score. Primary
// topics weigh 1.5x. Topics the user lacks keep their weight in the
// denominator, dragging the score down.
func scoreTopics(user UserProfile, project CandidateProject) TopicFeature {
	if len(project.Topics) == 0 || len(user.Topics) == 0 {
		return TopicFeature{
			Matches: []TopicMatch{},
			Missing: missingAll(project.Topics),
		}
	}

	userTopics := make(map[string]UserTopic, len(user.Topics))
	for _, ut := range user.Topics {
		userTopics[ut.Name] = ut
	}

	feature := TopicFeature{
		Matches: []TopicMatch{},
		Missing: []MissingTopic{},
	}

	var contributions, totalWeight float64
	for _, pt := range project.Topics {
		weight := primaryWeight
		if pt.IsPrimary {
			weight *= primaryBoost
		}
		totalWeight += weight

		ut, ok := userTopics[pt.Name]
		if !ok {
			feature.Missing = append(feature.Missing, MissingTopic{
				Name:      pt.Name,
				IsPrimary: pt.IsPrimary,
			})
			continue
		}

		experience := ut.ExperienceLevel.Normalize()
		interest := ut.InterestLevel.Normalize()
		contributions += weight * (topicExperienceShare*experience + topicInterestShare*interest)

		feature.Matches = append(feature.Matches, TopicMatch{
			Name:       pt.Name,
			IsPrimary:  pt.IsPrimary,
			Experience: experience,
			Interest:   interest,
		})
	}

	if totalWeight > 0 {
		feature.Score = contributions / totalWeight * 100
	}
	return feature
}

// scoreLanguages computes the weighted language-proficiency score plus
// coverage. A language the user lacks contributes nothing to the fit
// numerator and nothing to coverage, but keeps its weight in both
// denominators.
func scoreLanguages(user UserProfile, project CandidateProject) LanguageFeature {
	if len(project.Languages) == 0 || len(user.Languages) == 0 {
		return LanguageFeature{
			Matches: []LanguageMatch{},
			Gaps:    gapsAll(project.Languages),
		}
	}

	userLangs := make(map[string]UserLanguage, len(user.Languages))
	for _, ul := range user.Languages {
		userLangs[ul.Name] = ul
	}

	feature := LanguageFeature{
		Matches: []LanguageMatch{},
		Gaps:    []LanguageGap{},
	}

	var weightedFit, coveredWeight, totalWeight float64
	for _, pl := range project.Languages {
		weight := primaryWeight
		if pl.IsPrimary {
			weight *= primaryBoost
		}
		totalWeight += weight

		required := pl.RequiredLevel.Normalize()

		ul, ok := userLangs[pl.Name]
		if !ok {
			feature.Gaps = append(feature.Gaps, LanguageGap{
				Name:      pl.Name,
				IsPrimary: pl.IsPrimary,
				Required:  required,
			})
			continue
		}

		proficiency := langLevelShare*ul.ProficiencyLevel.Normalize() +
			langYearsShare*clamp01(ul.YearsExperience/langYearsCeiling)
		gap := math.Max(0, required-proficiency)

		weightedFit += weight * math.Max(0, 1-gap)
		coveredWeight += weight

		feature.Matches = append(feature.Matches, LanguageMatch{
			Name:        pl.Name,
			IsPrimary:   pl.IsPrimary,
			Proficiency: proficiency,
			Required:    required,
			Gap:         gap,
			Meets:       gap <= 0,
		})
	}

	if totalWeight > 0 {
		feature.Coverage = coveredWeight / totalWeight
		feature.Score = langFitShare*(weightedFit/totalWeight)*100 +
			langCoverageShare*feature.Coverage*100
	}
	return feature
}

// scoreDifficulty compares the user's experience bucket against the
// project's required level on the 1-4 ordinal scale.
func scoreDifficulty(user UserProfile, project CandidateProject) float64 {
	userLevel := LevelFromYears(user.YearsExperience).Ordinal()
	required := project.RequiredExperienceLevel.Ordinal()
	if userLevel >= required {
		return 100
	}
	return math.Max(0, 100-float64(required-userLevel)*difficultyStepPenalty)
}

func missingAll(topics []ProjectTopic) []MissingTopic {
	missing := make([]MissingTopic, 0, len(topics))
	for _, pt := range topics {
		missing = append(missing, MissingTopic{Name: pt.Name, IsPrimary: pt.IsPrimary})
	}
	return missing
}

func gapsAll(languages []ProjectLanguage) []LanguageGap {
	gaps := make([]LanguageGap, 0, len(languages))
	for _, pl := range languages {
		gaps = append(gaps, LanguageGap{
			Name:      pl.Name,
			IsPrimary: pl.IsPrimary,
			Required:  pl.RequiredLevel.Normalize(),
		})
	}
	return gaps
}
