package matching

// UserProfile is an immutable snapshot of a user's skills for the
// duration of one scoring call. It is fetched fresh per request and
// owned by the caller.
type UserProfile struct {
	// ID is the opaque user identifier.
	ID string `json:"id"`

	// YearsExperience is the user's overall experience in years.
	YearsExperience float64 `json:"years_experience"`

	// Topics are the user's declared topic interests.
	Topics []UserTopic `json:"topics"`

	// Languages are the user's programming languages.
	Languages []UserLanguage `json:"languages"`
}

// UserTopic is a topic the user has declared interest and experience in.
type UserTopic struct {
	// Name is the topic identifier.
	Name string `json:"name"`

	// InterestLevel is how interested the user is in the topic.
	InterestLevel Level `json:"interest_level"`

	// ExperienceLevel is the user's experience with the topic.
	ExperienceLevel Level `json:"experience_level"`
}

// UserLanguage is a programming language the user knows.
type UserLanguage struct {
	// Name is the language identifier.
	Name string `json:"name"`

	// ProficiencyLevel is the user's proficiency in the language.
	ProficiencyLevel Level `json:"proficiency_level"`

	// YearsExperience is years of experience with this language.
	YearsExperience float64 `json:"years_experience"`
}

// CandidateProject is a project under consideration for recommendation.
// Read-only input to the scorer.
type CandidateProject struct {
	// ID is the opaque project identifier.
	ID string `json:"id"`

	// Title is the project title.
	Title string `json:"title"`

	// Description is the project description.
	Description string `json:"description"`

	// RequiredExperienceLevel is the overall difficulty of the project.
	RequiredExperienceLevel LevelName `json:"required_experience_level"`

	// CurrentMembers is the number of active members.
	CurrentMembers int `json:"current_members"`

	// MaximumMembers is the member capacity.
	MaximumMembers int `json:"maximum_members"`

	// OwnerID is the project owner's user ID.
	OwnerID string `json:"owner_id"`

	// Topics are the project's topics.
	Topics []ProjectTopic `json:"topics"`

	// Languages are the project's required languages.
	Languages []ProjectLanguage `json:"languages"`
}

// ProjectTopic is a topic attached to a project.
type ProjectTopic struct {
	// Name is the topic identifier.
	Name string `json:"name"`

	// IsPrimary marks the project's main topics, which carry extra weight.
	IsPrimary bool `json:"is_primary"`
}

// ProjectLanguage is a language a project requires.
type ProjectLanguage struct {
	// Name is the language identifier.
	Name string `json:"name"`

	// RequiredLevel is the proficiency the project expects.
	RequiredLevel Level `json:"required_level"`

	// IsPrimary marks the project's main languages, which carry extra weight.
	IsPrimary bool `json:"is_primary"`
}

// IsFull reports whether the project has no open seats.
func (p CandidateProject) IsFull() bool {
	return p.MaximumMembers > 0 && p.CurrentMembers >= p.MaximumMembers
}

// TopicMatch records a project topic the user covers.
type TopicMatch struct {
	// Name is the topic identifier.
	Name string `json:"name"`

	// IsPrimary mirrors the project topic's primary flag.
	IsPrimary bool `json:"is_primary"`

	// Experience is the user's normalized experience (0-1).
	Experience float64 `json:"experience"`

	// Interest is the user's normalized interest (0-1).
	Interest float64 `json:"interest"`
}

// MissingTopic records a project topic the user does not cover.
type MissingTopic struct {
	// Name is the topic identifier.
	Name string `json:"name"`

	// IsPrimary mirrors the project topic's primary flag.
	IsPrimary bool `json:"is_primary"`
}

// LanguageMatch records a project language the user knows.
type LanguageMatch struct {
	// Name is the language identifier.
	Name string `json:"name"`

	// IsPrimary mirrors the project language's primary flag.
	IsPrimary bool `json:"is_primary"`

	// Proficiency is the user's blended proficiency (0-1).
	Proficiency float64 `json:"proficiency"`

	// Required is the normalized required level (0-1).
	Required float64 `json:"required"`

	// Gap is how far proficiency falls short of required (0 when met).
	Gap float64 `json:"gap"`

	// Meets reports whether proficiency meets the requirement.
	Meets bool `json:"meets"`
}

// LanguageGap records a project language the user lacks entirely.
type LanguageGap struct {
	// Name is the language identifier.
	Name string `json:"name"`

	// IsPrimary mirrors the project language's primary flag.
	IsPrimary bool `json:"is_primary"`

	// Required is the normalized required level (0-1).
	Required float64 `json:"required"`
}

// TopicFeature is the topic-coverage dimension of a FeatureSet.
type TopicFeature struct {
	// Score is the topic-coverage score (0-100).
	Score float64 `json:"score"`

	// Matches are the covered project topics.
	Matches []TopicMatch `json:"matches"`

	// Missing are the uncovered project topics.
	Missing []MissingTopic `json:"missing"`
}

// LanguageFeature is the language-proficiency dimension of a FeatureSet.
type LanguageFeature struct {
	// Score is the language-proficiency score (0-100).
	Score float64 `json:"score"`

	// Matches are the project languages the user knows.
	Matches []LanguageMatch `json:"matches"`

	// Gaps are the project languages the user lacks.
	Gaps []LanguageGap `json:"gaps"`

	// Coverage is the weighted fraction of required languages covered (0-1).
	Coverage float64 `json:"coverage"`
}

// FeatureSet holds the per-dimension feature scores for one candidate.
// Transient: produced by Score, consumed by Aggregate and the factor
// builder, then discarded.
type FeatureSet struct {
	// Topic is the topic-coverage dimension.
	Topic TopicFeature `json:"topic"`

	// Language is the language-proficiency dimension.
	Language LanguageFeature `json:"language"`

	// Difficulty is the difficulty-alignment score (0-100).
	Difficulty float64 `json:"difficulty"`
}

// ScoredCandidate is one scored, explainable recommendation.
type ScoredCandidate struct {
	// ProjectID identifies the recommended project.
	ProjectID string `json:"project_id"`

	// Score is the aggregate recommendation score, rounded to an integer.
	Score int `json:"score"`

	// MatchFactors explains the score.
	MatchFactors MatchFactors `json:"match_factors"`

	// Technologies are the flattened project language names. Used only
	// for diversity similarity during reranking.
	Technologies []string `json:"technologies"`
}

// MatchFactors is the structured explanation attached to a scored
// candidate. The legacy fields are kept for existing consumers; the
// enhanced fields carry the weighted scoring breakdown.
type MatchFactors struct {
	// TopicMatches are the topic names shared by user and project.
	TopicMatches []string `json:"topic_matches"`

	// LanguageMatches are the language names shared by user and project.
	LanguageMatches []string `json:"language_matches"`

	// ExperienceMatch reports whether the user's experience level meets
	// the project's required level.
	ExperienceMatch bool `json:"experience_match"`

	// TopicCoverage is the topic dimension breakdown.
	TopicCoverage TopicFeature `json:"topic_coverage"`

	// LanguageFit is the language dimension breakdown.
	LanguageFit LanguageFeature `json:"language_fit"`

	// DifficultyAlignment is the difficulty-alignment score (0-100).
	DifficultyAlignment float64 `json:"difficulty_alignment"`

	// Highlights are up to three human-readable strengths.
	Highlights []string `json:"highlights"`

	// Suggestions are up to three gap-closing suggestions.
	Suggestions []string `json:"suggestions"`
}
