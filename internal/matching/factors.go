package matching

import (
	"fmt"
	"sort"
)

const (
	maxHighlights   = 3
	maxSuggestions  = 3
	maxCriticalGaps = 3
)

// buildMatchFactors assembles the explanation object for a scored
// candidate. The legacy fields are plain set intersections, independent
// of the weighted scoring; the enhanced fields reuse the feature set.
func buildMatchFactors(user UserProfile, project CandidateProject, features FeatureSet) MatchFactors {
	factors := MatchFactors{
		TopicMatches:        intersectTopics(user, project),
		LanguageMatches:     intersectLanguages(user, project),
		ExperienceMatch:     experienceMatch(user, project),
		TopicCoverage:       features.Topic,
		LanguageFit:         features.Language,
		DifficultyAlignment: features.Difficulty,
		Highlights:          buildHighlights(features),
		Suggestions:         buildSuggestions(features),
	}
	return factors
}

// intersectTopics returns topic names present on both sides.
func intersectTopics(user UserProfile, project CandidateProject) []string {
	userTopics := make(map[string]bool, len(user.Topics))
	for _, ut := range user.Topics {
		userTopics[ut.Name] = true
	}

	matches := []string{}
	for _, pt := range project.Topics {
		if userTopics[pt.Name] {
			matches = append(matches, pt.Name)
		}
	}
	return matches
}

// intersectLanguages returns language names present on both sides.
func intersectLanguages(user UserProfile, project CandidateProject) []string {
	userLangs := make(map[string]bool, len(user.Languages))
	for _, ul := range user.Languages {
		userLangs[ul.Name] = true
	}

	matches := []string{}
	for _, pl := range project.Languages {
		if userLangs[pl.Name] {
			matches = append(matches, pl.Name)
		}
	}
	return matches
}

// experienceMatch reports whether the user's bucketed experience level
// meets the project's required level.
func experienceMatch(user UserProfile, project CandidateProject) bool {
	return LevelFromYears(user.YearsExperience).Ordinal() >=
		project.RequiredExperienceLevel.Ordinal()
}

// buildHighlights picks up to three human-readable strengths: the
// strongest language matches first, then the strongest topic matches.
// Matches are ranked primary-first, then by proficiency or experience.
func buildHighlights(features FeatureSet) []string {
	highlights := []string{}

	langMatches := append([]LanguageMatch{}, features.Language.Matches...)
	sort.SliceStable(langMatches, func(i, j int) bool {
		if langMatches[i].IsPrimary != langMatches[j].IsPrimary {
			return langMatches[i].IsPrimary
		}
		return langMatches[i].Proficiency > langMatches[j].Proficiency
	})
	for _, m := range langMatches {
		if len(highlights) >= maxHighlights {
			return highlights
		}
		if m.Meets {
			highlights = append(highlights, fmt.Sprintf("Strong %s skills meet the project requirement", m.Name))
		}
	}

	topicMatches := append([]TopicMatch{}, features.Topic.Matches...)
	sort.SliceStable(topicMatches, func(i, j int) bool {
		if topicMatches[i].IsPrimary != topicMatches[j].IsPrimary {
			return topicMatches[i].IsPrimary
		}
		return topicMatches[i].Experience > topicMatches[j].Experience
	})
	for _, m := range topicMatches {
		if len(highlights) >= maxHighlights {
			return highlights
		}
		highlights = append(highlights, fmt.Sprintf("Experience with %s aligns with the project focus", m.Name))
	}

	return highlights
}

// criticalGap is a unified view over language gaps and missing topics,
// used to rank what most needs closing.
type criticalGap struct {
	name      string
	isPrimary bool
	language  bool
}

// buildSuggestions turns the largest gaps into up to three suggestions.
// Language gaps and missing topics are pooled, primary entries first.
func buildSuggestions(features FeatureSet) []string {
	gaps := make([]criticalGap, 0, len(features.Language.Gaps)+len(features.Topic.Missing))
	for _, g := range features.Language.Gaps {
		gaps = append(gaps, criticalGap{name: g.Name, isPrimary: g.IsPrimary, language: true})
	}
	for _, m := range features.Topic.Missing {
		gaps = append(gaps, criticalGap{name: m.Name, isPrimary: m.IsPrimary})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].isPrimary && !gaps[j].isPrimary
	})
	if len(gaps) > maxCriticalGaps {
		gaps = gaps[:maxCriticalGaps]
	}

	suggestions := []string{}
	for _, g := range gaps {
		if len(suggestions) >= maxSuggestions {
			break
		}
		if g.language {
			suggestions = append(suggestions, fmt.Sprintf("Learn %s to qualify for this project", g.name))
		} else {
			suggestions = append(suggestions, fmt.Sprintf("Build experience in %s to improve your fit", g.name))
		}
	}
	return suggestions
}
