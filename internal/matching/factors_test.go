package matching

import (
	"strings"
	"testing"
)

func factorsFor(user UserProfile, project CandidateProject) MatchFactors {
	s := NewScorer(Weights{})
	return buildMatchFactors(user, project, s.Score(user, project))
}

func TestBuildMatchFactors_LegacyIntersections(t *testing.T) {
	user := UserProfile{
		YearsExperience: 4,
		Topics: []UserTopic{
			{Name: "web", ExperienceLevel: NamedLevel(LevelAdvanced), InterestLevel: NamedLevel(LevelExpert)},
			{Name: "devops", ExperienceLevel: NamedLevel(LevelBeginner), InterestLevel: NamedLevel(LevelBeginner)},
		},
		Languages: []UserLanguage{
			{Name: "Go", ProficiencyLevel: NamedLevel(LevelAdvanced), YearsExperience: 4},
		},
	}
	project := CandidateProject{
		RequiredExperienceLevel: LevelIntermediate,
		Topics: []ProjectTopic{
			{Name: "web", IsPrimary: true},
			{Name: "ml"},
		},
		Languages: []ProjectLanguage{
			{Name: "Go", RequiredLevel: NamedLevel(LevelIntermediate), IsPrimary: true},
			{Name: "Python", RequiredLevel: NamedLevel(LevelBeginner)},
		},
	}

	factors := factorsFor(user, project)

	if len(factors.TopicMatches) != 1 || factors.TopicMatches[0] != "web" {
		t.Errorf("TopicMatches = %v, want [web]", factors.TopicMatches)
	}
	if len(factors.LanguageMatches) != 1 || factors.LanguageMatches[0] != "Go" {
		t.Errorf("LanguageMatches = %v, want [Go]", factors.LanguageMatches)
	}
	if !factors.ExperienceMatch {
		t.Error("ExperienceMatch = false, want true (advanced >= intermediate)")
	}
}

func TestBuildMatchFactors_NoMatches(t *testing.T) {
	user := UserProfile{YearsExperience: 0.5}
	project := CandidateProject{
		RequiredExperienceLevel: LevelExpert,
		Topics:                  []ProjectTopic{{Name: "web", IsPrimary: true}},
		Languages:               []ProjectLanguage{{Name: "Go", RequiredLevel: NamedLevel(LevelExpert), IsPrimary: true}},
	}

	factors := factorsFor(user, project)

	if len(factors.TopicMatches) != 0 {
		t.Errorf("TopicMatches = %v, want empty", factors.TopicMatches)
	}
	if factors.ExperienceMatch {
		t.Error("ExperienceMatch = true, want false (beginner < expert)")
	}
	if len(factors.Highlights) != 0 {
		t.Errorf("Highlights = %v, want empty", factors.Highlights)
	}
	if len(factors.Suggestions) == 0 {
		t.Error("Suggestions empty, want gap-closing suggestions")
	}
}

func TestBuildHighlights_CapAndOrder(t *testing.T) {
	user := UserProfile{
		YearsExperience: 10,
		Topics: []UserTopic{
			{Name: "t1", ExperienceLevel: NamedLevel(LevelExpert), InterestLevel: NamedLevel(LevelExpert)},
			{Name: "t2", ExperienceLevel: NamedLevel(LevelExpert), InterestLevel: NamedLevel(LevelExpert)},
		},
		Languages: []UserLanguage{
			{Name: "Go", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 8},
			{Name: "Python", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 8},
			{Name: "Rust", ProficiencyLevel: NamedLevel(LevelExpert), YearsExperience: 8},
		},
	}
	project := CandidateProject{
		RequiredExperienceLevel: LevelIntermediate,
		Topics: []ProjectTopic{
			{Name: "t1", IsPrimary: true},
			{Name: "t2"},
		},
		Languages: []ProjectLanguage{
			{Name: "Go", RequiredLevel: NamedLevel(LevelBeginner)},
			{Name: "Python", RequiredLevel: NamedLevel(LevelBeginner), IsPrimary: true},
			{Name: "Rust", RequiredLevel: NamedLevel(LevelBeginner)},
		},
	}

	factors := factorsFor(user, project)

	if len(factors.Highlights) != 3 {
		t.Fatalf("Highlights = %v, want exactly 3", factors.Highlights)
	}
	// Primary language first.
	if !strings.Contains(factors.Highlights[0], "Python") {
		t.Errorf("first highlight = %q, want the primary language", factors.Highlights[0])
	}
	for _, h := range factors.Highlights {
		if !strings.Contains(h, "skills meet the project requirement") {
			t.Errorf("highlight %q, want language highlights to fill the cap first", h)
		}
	}
}

func TestBuildSuggestions_PrimaryGapsFirst(t *testing.T) {
	user := UserProfile{
		YearsExperience: 2,
		Topics:          []UserTopic{{Name: "other", ExperienceLevel: NamedLevel(LevelBeginner), InterestLevel: NamedLevel(LevelBeginner)}},
		Languages:       []UserLanguage{{Name: "other", ProficiencyLevel: NamedLevel(LevelBeginner)}},
	}
	project := CandidateProject{
		RequiredExperienceLevel: LevelIntermediate,
		Topics: []ProjectTopic{
			{Name: "ml"},
			{Name: "web", IsPrimary: true},
		},
		Languages: []ProjectLanguage{
			{Name: "Python", RequiredLevel: NamedLevel(LevelIntermediate)},
			{Name: "Go", RequiredLevel: NamedLevel(LevelAdvanced), IsPrimary: true},
		},
	}

	factors := factorsFor(user, project)

	if len(factors.Suggestions) != 3 {
		t.Fatalf("Suggestions = %v, want exactly 3", factors.Suggestions)
	}
	// Primary gaps lead: the primary language gap, then the primary
	// missing topic.
	if !strings.Contains(factors.Suggestions[0], "Go") {
		t.Errorf("first suggestion = %q, want the primary language gap", factors.Suggestions[0])
	}
	if !strings.Contains(factors.Suggestions[1], "web") {
		t.Errorf("second suggestion = %q, want the primary missing topic", factors.Suggestions[1])
	}

	for _, s := range factors.Suggestions {
		if !strings.Contains(s, "Learn") && !strings.Contains(s, "Build experience") {
			t.Errorf("suggestion %q has unexpected phrasing", s)
		}
	}
}
