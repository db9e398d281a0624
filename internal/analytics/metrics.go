package analytics

import (
	"math"
	"strings"
)

// isCorrectPrediction reports whether a (predicted, actual) pair sits
// on the correct-prediction diagonal of the matrix kind.
func isCorrectPrediction(kind MatrixKind, predicted, actual string) bool {
	if kind == KindAssessment {
		p := strings.TrimPrefix(predicted, "predicted_")
		a := strings.TrimPrefix(actual, "actual_")
		return p == a
	}

	switch predicted {
	case BucketHighConfidence:
		return actual == OutcomePositive
	case BucketMediumConfidence:
		return actual == OutcomeNeutral
	case BucketLowConfidence:
		return actual == OutcomeNegative
	default:
		return false
	}
}

// isPositivePrediction reports whether a predicted bucket counts as
// positive under the binary precision/recall reduction. Only the top
// bucket qualifies.
func isPositivePrediction(predicted string) bool {
	return predicted == BucketHighConfidence || predicted == BucketPredictedSuccess
}

// isPositiveOutcome reports whether an actual bucket counts as
// positive under the binary reduction.
func isPositiveOutcome(actual string) bool {
	return actual == OutcomePositive || actual == OutcomeActualSuccess
}

// Accuracy is the share of observations on the correct-prediction
// diagonal, rounded to 2 decimals. Zero-total matrices yield 0.
func Accuracy(m *ConfusionMatrix) float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}

	correct := 0
	for predicted, row := range m.Cells {
		for actual, count := range row {
			if isCorrectPrediction(m.Kind, predicted, actual) {
				correct += count
			}
		}
	}

	return round2(float64(correct) / float64(total))
}

// Precision is TP/(TP+FP) over the binary reduction, rounded to 2
// decimals. Zero denominators yield 0.
func Precision(m *ConfusionMatrix) float64 {
	tp, fp, _ := binaryCounts(m)
	if tp+fp == 0 {
		return 0
	}
	return round2(float64(tp) / float64(tp+fp))
}

// Recall is TP/(TP+FN) over the binary reduction, rounded to 2
// decimals. Zero denominators yield 0.
func Recall(m *ConfusionMatrix) float64 {
	tp, _, fn := binaryCounts(m)
	if tp+fn == 0 {
		return 0
	}
	return round2(float64(tp) / float64(tp+fn))
}

// F1 is the harmonic mean of precision and recall, rounded to 2
// decimals. A zero sum yields 0.
func F1(m *ConfusionMatrix) float64 {
	p := Precision(m)
	r := Recall(m)
	if p+r == 0 {
		return 0
	}
	return round2(2 * p * r / (p + r))
}

// ComputeMetrics derives all four numbers for a matrix.
func ComputeMetrics(m *ConfusionMatrix) Metrics {
	return Metrics{
		Accuracy:  Accuracy(m),
		Precision: Precision(m),
		Recall:    Recall(m),
		F1:        F1(m),
	}
}

// binaryCounts reduces the 3x3 matrix to binary TP/FP/FN counts.
func binaryCounts(m *ConfusionMatrix) (tp, fp, fn int) {
	for predicted, row := range m.Cells {
		for actual, count := range row {
			predPositive := isPositivePrediction(predicted)
			actualPositive := isPositiveOutcome(actual)

			switch {
			case predPositive && actualPositive:
				tp += count
			case predPositive && !actualPositive:
				fp += count
			case !predPositive && actualPositive:
				fn += count
			}
		}
	}
	return tp, fp, fn
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
