package matching

import (
	"math"
	"testing"
)

// perfectUser meets or exceeds every requirement of perfectProject.
func perfectUser() UserProfile {
	return UserProfile{
		ID:              "u1",
		YearsExperience: 8,
		Topics: []UserTopic{
			{Name: "web", InterestLevel: NamedLevel(LevelExpert), ExperienceLevel: NamedLevel(LevelExpert)},
		},
		Languages: []UserLanguage{
			{Name: "Go", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 6},
		},
	}
}

func perfectProject() CandidateProject {
	return CandidateProject{
		ID:                      "p1",
		RequiredExperienceLevel: LevelIntermediate,
		Topics:                  []ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []ProjectLanguage{
			{Name: "Go", RequiredLevel: NamedLevel(LevelIntermediate), IsPrimary: true},
		},
	}
}

func TestScorer_PerfectMatch(t *testing.T) {
	s := NewScorer(DefaultWeights())
	features := s.Score(perfectUser(), perfectProject())

	if math.Abs(features.Topic.Score-100) > 1e-9 {
		t.Errorf("topic score = %v, want 100", features.Topic.Score)
	}
	if math.Abs(features.Language.Score-100) > 1e-9 {
		t.Errorf("language score = %v, want 100", features.Language.Score)
	}
	if math.Abs(features.Language.Coverage-1) > 1e-9 {
		t.Errorf("language coverage = %v, want 1", features.Language.Coverage)
	}
	if features.Difficulty != 100 {
		t.Errorf("difficulty = %v, want 100", features.Difficulty)
	}

	// 0.28*100 + 0.32*100 + 0.18*100 with the unapplied weights ignored.
	if agg := s.Aggregate(features); math.Abs(agg-78) > 1e-9 {
		t.Errorf("aggregate = %v, want 78", agg)
	}
}

func TestScorer_NoOverlapAlwaysExcluded(t *testing.T) {
	user := UserProfile{
		ID:              "u1",
		YearsExperience: 10,
		Topics:          []UserTopic{{Name: "databases", ExperienceLevel: NamedLevel(LevelExpert), InterestLevel: NamedLevel(LevelExpert)}},
		Languages:       []UserLanguage{{Name: "Rust", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 10}},
	}
	project := CandidateProject{
		ID:                      "p1",
		RequiredExperienceLevel: LevelBeginner,
		Topics:                  []ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages:               []ProjectLanguage{{Name: "JavaScript", RequiredLevel: NamedLevel(LevelBeginner), IsPrimary: true}},
	}

	s := NewScorer(Weights{})
	features := s.Score(user, project)

	if features.Topic.Score != 0 {
		t.Errorf("topic score = %v, want 0", features.Topic.Score)
	}
	if features.Language.Score != 0 {
		t.Errorf("language score = %v, want 0", features.Language.Score)
	}

	// Only the difficulty component contributes, capped at 0.18*100 = 18,
	// always below the 55 threshold.
	agg := s.Aggregate(features)
	if agg > 18.0+1e-9 {
		t.Errorf("aggregate = %v, want <= 18", agg)
	}
	if _, ok := s.ScoreCandidate(user, project); ok {
		t.Error("ScoreCandidate() accepted a zero-overlap candidate")
	}
}

func TestScorer_Determinism(t *testing.T) {
	s := NewScorer(Weights{})
	user := perfectUser()
	project := perfectProject()

	first := s.Aggregate(s.Score(user, project))
	for i := 0; i < 10; i++ {
		if got := s.Aggregate(s.Score(user, project)); got != first {
			t.Fatalf("aggregate varied across calls: %v != %v", got, first)
		}
	}
}

func TestScorer_ScoreBounds(t *testing.T) {
	users := []UserProfile{
		{},
		perfectUser(),
		{YearsExperience: -5},
		{
			YearsExperience: 50,
			Topics:          []UserTopic{{Name: "web", ExperienceLevel: NumericLevel(99), InterestLevel: NumericLevel(-3)}},
			Languages:       []UserLanguage{{Name: "Go", ProficiencyLevel: NumericLevel(99), YearsExperience: 50}},
		},
	}
	projects := []CandidateProject{
		{},
		perfectProject(),
		{
			RequiredExperienceLevel: "nonsense",
			Topics:                  []ProjectTopic{{Name: "web", IsPrimary: true}, {Name: "ml"}},
			Languages:               []ProjectLanguage{{Name: "Go", RequiredLevel: NumericLevel(5), IsPrimary: true}},
		},
	}

	s := NewScorer(Weights{})
	for _, u := range users {
		for _, p := range projects {
			agg := s.Aggregate(s.Score(u, p))
			if agg < 0 || agg > 100 {
				t.Errorf("aggregate = %v out of [0,100] for user %+v project %+v", agg, u, p)
			}
		}
	}
}

func TestScorer_JavaScriptWebScenario(t *testing.T) {
	user := UserProfile{
		ID:              "u1",
		YearsExperience: 3,
		Topics: []UserTopic{
			{Name: "web", InterestLevel: NumericLevel(5), ExperienceLevel: NumericLevel(4)},
		},
		Languages: []UserLanguage{
			{Name: "JavaScript", ProficiencyLevel: NamedLevel(LevelAdvanced), YearsExperience: 3},
		},
	}
	project := CandidateProject{
		ID:                      "p1",
		RequiredExperienceLevel: LevelIntermediate,
		Topics:                  []ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages: []ProjectLanguage{
			{Name: "JavaScript", RequiredLevel: NamedLevel(LevelIntermediate), IsPrimary: true},
		},
	}

	s := NewScorer(Weights{})
	features := s.Score(user, project)

	// 0.6*0.8 + 0.4*1.0 = 0.88 of the full topic weight.
	if math.Abs(features.Topic.Score-88) > 1e-9 {
		t.Errorf("topic score = %v, want 88", features.Topic.Score)
	}
	// Proficiency 0.7*0.75 + 0.3*(3/6) = 0.675 exceeds the required
	// 0.5, so fit and coverage are both full.
	if math.Abs(features.Language.Score-100) > 1e-9 {
		t.Errorf("language score = %v, want 100", features.Language.Score)
	}
	if features.Difficulty != 100 {
		t.Errorf("difficulty = %v, want 100 (advanced >= intermediate)", features.Difficulty)
	}

	candidate, ok := s.ScoreCandidate(user, project)
	if !ok {
		t.Fatal("ScoreCandidate() excluded a strong candidate")
	}
	if candidate.Score < 70 {
		t.Errorf("Score = %d, want >= 70", candidate.Score)
	}
	if len(candidate.Technologies) != 1 || candidate.Technologies[0] != "JavaScript" {
		t.Errorf("Technologies = %v, want [JavaScript]", candidate.Technologies)
	}
}

func TestScoreTopics_MissingTopicKeepsWeight(t *testing.T) {
	user := UserProfile{
		Topics: []UserTopic{
			{Name: "web", ExperienceLevel: NamedLevel(LevelExpert), InterestLevel: NamedLevel(LevelExpert)},
		},
	}
	project := CandidateProject{
		Topics: []ProjectTopic{
			{Name: "web", IsPrimary: true},
			{Name: "ml"},
		},
	}

	feature := scoreTopics(user, project)

	// Matched primary contributes 1.5 of the 2.5 total weight.
	if math.Abs(feature.Score-60) > 1e-9 {
		t.Errorf("topic score = %v, want 60", feature.Score)
	}
	if len(feature.Missing) != 1 || feature.Missing[0].Name != "ml" {
		t.Errorf("Missing = %v, want [ml]", feature.Missing)
	}
}

func TestScoreTopics_EmptySides(t *testing.T) {
	project := CandidateProject{Topics: []ProjectTopic{{Name: "web", IsPrimary: true}}}

	if got := scoreTopics(UserProfile{}, project); got.Score != 0 || len(got.Missing) != 1 {
		t.Errorf("no user topics: score = %v missing = %d, want 0 and 1", got.Score, len(got.Missing))
	}
	if got := scoreTopics(perfectUser(), CandidateProject{}); got.Score != 0 {
		t.Errorf("no project topics: score = %v, want 0", got.Score)
	}
}

func TestScoreLanguages_MissingLanguage(t *testing.T) {
	user := UserProfile{
		Languages: []UserLanguage{
			{Name: "Go", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 6},
		},
	}
	project := CandidateProject{
		Languages: []ProjectLanguage{
			{Name: "Go", RequiredLevel: NamedLevel(LevelIntermediate), IsPrimary: true},
			{Name: "Python", RequiredLevel: NamedLevel(LevelIntermediate)},
		},
	}

	feature := scoreLanguages(user, project)

	// Covered weight 1.5 of 2.5 total.
	if math.Abs(feature.Coverage-0.6) > 1e-9 {
		t.Errorf("coverage = %v, want 0.6", feature.Coverage)
	}
	// Fit 0.85*(1.5/2.5)*100 + 0.15*0.6*100 = 51 + 9 = 60.
	if math.Abs(feature.Score-60) > 1e-9 {
		t.Errorf("language score = %v, want 60", feature.Score)
	}
	if len(feature.Gaps) != 1 || feature.Gaps[0].Name != "Python" {
		t.Errorf("Gaps = %v, want [Python]", feature.Gaps)
	}
}

func TestScoreLanguages_PartialGap(t *testing.T) {
	user := UserProfile{
		Languages: []UserLanguage{
			{Name: "Go", ProficiencyLevel: NamedLevel(LevelBeginner), YearsExperience: 0},
		},
	}
	project := CandidateProject{
		Languages: []ProjectLanguage{
			{Name: "Go", RequiredLevel: NamedLevel(LevelExpert), IsPrimary: true},
		},
	}

	feature := scoreLanguages(user, project)

	if len(feature.Matches) != 1 {
		t.Fatalf("Matches = %v, want 1 entry", feature.Matches)
	}
	m := feature.Matches[0]
	// Proficiency 0.7*0.25 = 0.175, required 1.0, gap 0.825.
	if math.Abs(m.Gap-0.825) > 1e-9 {
		t.Errorf("gap = %v, want 0.825", m.Gap)
	}
	if m.Meets {
		t.Error("Meets = true for a language far below requirement")
	}
	// Fit 0.85*(1-0.825)*100 + 0.15*100 = 14.875 + 15 = 29.875.
	if math.Abs(feature.Score-29.875) > 1e-9 {
		t.Errorf("language score = %v, want 29.875", feature.Score)
	}
}

func TestScoreDifficulty(t *testing.T) {
	tests := []struct {
		name     string
		years    float64
		required LevelName
		want     float64
	}{
		{"meets requirement", 3, LevelIntermediate, 100},
		{"exceeds requirement", 10, LevelBeginner, 100},
		{"one level short", 1, LevelAdvanced, 78},
		{"two levels short", 1, LevelExpert, 56},
		{"three levels short", 0, LevelExpert, 34},
		{"unknown required level ranks intermediate", 1, "mystery", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := UserProfile{YearsExperience: tt.years}
			project := CandidateProject{RequiredExperienceLevel: tt.required}
			if got := scoreDifficulty(user, project); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("scoreDifficulty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_ThresholdOverride(t *testing.T) {
	user := UserProfile{
		YearsExperience: 10,
		Topics:          []UserTopic{{Name: "a", ExperienceLevel: NamedLevel(LevelExpert), InterestLevel: NamedLevel(LevelExpert)}},
		Languages:       []UserLanguage{{Name: "x", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 10}},
	}
	project := CandidateProject{
		ID:                      "p1",
		RequiredExperienceLevel: LevelBeginner,
		Topics:                  []ProjectTopic{{Name: "b", IsPrimary: true}},
		Languages:               []ProjectLanguage{{Name: "y", RequiredLevel: NamedLevel(LevelBeginner)}},
	}

	// Zero overlap aggregates to 18, excluded by default but accepted
	// once the threshold is lowered.
	if _, ok := NewScorer(Weights{}).ScoreCandidate(user, project); ok {
		t.Fatal("default threshold accepted an 18-point candidate")
	}
	if _, ok := NewScorer(Weights{}).WithThreshold(10).ScoreCandidate(user, project); !ok {
		t.Error("lowered threshold still excluded the candidate")
	}
}

func TestCandidateProject_IsFull(t *testing.T) {
	tests := []struct {
		name    string
		current int
		max     int
		want    bool
	}{
		{"open seats", 2, 5, false},
		{"at capacity", 5, 5, true},
		{"over capacity", 6, 5, true},
		{"no capacity limit", 100, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CandidateProject{CurrentMembers: tt.current, MaximumMembers: tt.max}
			if got := p.IsFull(); got != tt.want {
				t.Errorf("IsFull() = %v, want %v", got, tt.want)
			}
		})
	}
}
