package training

import (
	"fmt"
	"math"
	"sort"

	"token-risk-lab/internal/dataset"
	"token-risk-lab/internal/domain"
)

// AUCROC computes the area under the ROC curve from binary labels and
// predicted scores using the rank statistic, with midrank handling for ties.
// Label-order-invariant; always in [0, 1].
func AUCROC(labels []int, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return 0, fmt.Errorf("labels/scores length mismatch: %d vs %d", len(labels), len(scores))
	}

	type pair struct {
		score float64
		label int
	}
	pairs := make([]pair, len(labels))
	nPos, nNeg := 0, 0
	for i := range labels {
		pairs[i] = pair{scores[i], labels[i]}
		if labels[i] == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, fmt.Errorf("AUC undefined: %d positives, %d negatives", nPos, nNeg)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// Midranks over tied scores, then Mann-Whitney U.
	rankSumPos := 0.0
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		// 1-based ranks i+1..j share the midrank.
		midrank := float64(i+1+j) / 2.0
		for k := i; k < j; k++ {
			if pairs[k].label == 1 {
				rankSumPos += midrank
			}
		}
		i = j
	}

	u := rankSumPos - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg)), nil
}

// PrecisionAt90Recall returns the precision achieved at the smallest score
// threshold for which recall >= 0.9. If no threshold reaches 0.9 recall,
// the best-recall point is used instead.
func PrecisionAt90Recall(labels []int, scores []float64) float64 {
	type point struct {
		precision float64
		recall    float64
	}

	nPos := 0
	for _, l := range labels {
		if l == 1 {
			nPos++
		}
	}
	if nPos == 0 {
		return 0
	}

	// Distinct thresholds ascending: predict positive when score >= t.
	thresholds := distinctSorted(scores)
	var curve []point
	for _, t := range thresholds {
		tp, fp := 0, 0
		for i, s := range scores {
			if s >= t {
				if labels[i] == 1 {
					tp++
				} else {
					fp++
				}
			}
		}
		if tp+fp == 0 {
			continue
		}
		curve = append(curve, point{
			precision: float64(tp) / float64(tp+fp),
			recall:    float64(tp) / float64(nPos),
		})
	}
	if len(curve) == 0 {
		return 0
	}

	best := curve[0]
	for _, pt := range curve {
		if pt.recall >= 0.9 {
			return pt.precision
		}
		if pt.recall > best.recall {
			best = pt
		}
	}
	return best.precision
}

// ConfusionMatrix counts outcomes of thresholded predictions.
type ConfusionMatrix struct {
	TrueNegatives  int
	FalsePositives int
	FalseNegatives int
	TruePositives  int
}

// Confusion thresholds scores at threshold and tallies against labels.
func Confusion(labels []int, scores []float64, threshold float64) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, s := range scores {
		predicted := s > threshold
		actual := labels[i] == 1
		switch {
		case predicted && actual:
			cm.TruePositives++
		case predicted && !actual:
			cm.FalsePositives++
		case !predicted && actual:
			cm.FalseNegatives++
		default:
			cm.TrueNegatives++
		}
	}
	return cm
}

// ClassReport holds per-class precision/recall/F1 for the held-out set.
type ClassReport struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report computes per-class diagnostics from a confusion matrix.
// Index 0 is the legitimate class, index 1 the rug-pull class.
func (cm ConfusionMatrix) Report() [2]ClassReport {
	var out [2]ClassReport

	// Rug-pull class: positives.
	out[1] = classReport(cm.TruePositives, cm.FalsePositives, cm.FalseNegatives)
	out[1].Support = cm.TruePositives + cm.FalseNegatives

	// Legitimate class: negatives treated as the positive of the inverted problem.
	out[0] = classReport(cm.TrueNegatives, cm.FalseNegatives, cm.FalsePositives)
	out[0].Support = cm.TrueNegatives + cm.FalsePositives

	return out
}

// Accuracy is the fraction of correct predictions.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.TruePositives + cm.TrueNegatives + cm.FalsePositives + cm.FalseNegatives
	if total == 0 {
		return 0
	}
	return float64(cm.TruePositives+cm.TrueNegatives) / float64(total)
}

func classReport(tp, fp, fn int) ClassReport {
	var r ClassReport
	if tp+fp > 0 {
		r.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		r.Recall = float64(tp) / float64(tp+fn)
	}
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
	return r
}

// CrossValidateAUC runs stratified k-fold cross-validation on the training
// partition and returns the mean and population standard deviation of the
// per-fold AUC scores.
func CrossValidateAUC(examples []domain.LabeledExample, k int, seed int64, c float64, maxIter int) (mean, std float64, err error) {
	folds, err := dataset.StratifiedKFold(examples, k, seed)
	if err != nil {
		return 0, 0, fmt.Errorf("build folds: %w", err)
	}

	aucs := make([]float64, 0, len(folds))
	for i, fold := range folds {
		fit, err := Fit(fold.Train, c, maxIter)
		if err != nil {
			return 0, 0, fmt.Errorf("fold %d fit: %w", i, err)
		}
		labels, scores := scoreExamples(fit, fold.Test)
		auc, err := AUCROC(labels, scores)
		if err != nil {
			return 0, 0, fmt.Errorf("fold %d AUC: %w", i, err)
		}
		aucs = append(aucs, auc)
	}

	for _, a := range aucs {
		mean += a
	}
	mean /= float64(len(aucs))
	for _, a := range aucs {
		d := a - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(aucs)))
	return mean, std, nil
}

// scoreExamples predicts probabilities for every example.
func scoreExamples(fit *FitResult, examples []domain.LabeledExample) (labels []int, scores []float64) {
	labels = make([]int, len(examples))
	scores = make([]float64, len(examples))
	for i, ex := range examples {
		labels[i] = ex.IsRugPull
		scores[i] = fit.PredictProba(ex.Features)
	}
	return labels, scores
}

func distinctSorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[n-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}
