// Package rerank applies Maximal Marginal Relevance (MMR) reordering to
// scored candidates so that top-K recommendations are not all
// near-duplicates of each other.
package rerank

import (
	"github.com/skillmatch/skill-match/internal/matching"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
)

// DefaultLambda is the default diversity tradeoff. 0 = pure relevance,
// 1 = pure diversity.
const DefaultLambda = 0.25

// Ranker reorders scored candidates with greedy MMR selection.
type Ranker struct {
	lambda float64
	log    *logger.Logger
}

// NewRanker creates a ranker with the given lambda. Out-of-range values
// fall back to the default.
func NewRanker(lambda float64, log *logger.Logger) *Ranker {
	if lambda < 0 || lambda > 1 {
		lambda = DefaultLambda
	}
	return &Ranker{lambda: lambda, log: log}
}

// Lambda returns the configured diversity tradeoff.
func (r *Ranker) Lambda() float64 {
	return r.lambda
}

// Rerank returns a full permutation of candidates in greedy MMR order.
// Each step picks the remaining candidate maximizing
//
//	mmr = (1-lambda)*score - lambda*similarity*100
//
// where similarity is the maximum Jaccard similarity of the candidate's
// technology set against the already-selected candidates (0 while none
// are selected). Ties go to the earliest remaining candidate, so the
// result is deterministic for a fixed input order.
func (r *Ranker) Rerank(candidates []matching.ScoredCandidate) []matching.ScoredCandidate {
	if len(candidates) <= 1 {
		return candidates
	}

	remaining := append([]matching.ScoredCandidate{}, candidates...)
	selected := make([]matching.ScoredCandidate, 0, len(candidates))

	for len(remaining) > 0 {
		bestIdx := 0
		bestScore := r.mmrScore(remaining[0], selected)

		for i := 1; i < len(remaining); i++ {
			if score := r.mmrScore(remaining[i], selected); score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	if r.log != nil {
		r.log.Debug("reranked candidates", "count", len(selected), "lambda", r.lambda)
	}
	return selected
}

func (r *Ranker) mmrScore(candidate matching.ScoredCandidate, selected []matching.ScoredCandidate) float64 {
	var diversity float64
	for _, s := range selected {
		if sim := jaccard(candidate.Technologies, s.Technologies); sim > diversity {
			diversity = sim
		}
	}
	return (1-r.lambda)*float64(candidate.Score) - r.lambda*diversity*100
}

// jaccard computes |intersection| / |union| over two technology sets.
// An empty union counts as similarity 0.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	union := make(map[string]bool, len(a)+len(b))
	inA := make(map[string]bool, len(a))
	for _, t := range a {
		union[t] = true
		inA[t] = true
	}

	intersection := 0
	counted := make(map[string]bool, len(b))
	for _, t := range b {
		union[t] = true
		if inA[t] && !counted[t] {
			intersection++
			counted[t] = true
		}
	}

	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
