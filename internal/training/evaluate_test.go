package training

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAUCROC_PerfectSeparation(t *testing.T) {
	labels := []int{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}

	auc, err := AUCROC(labels, scores)
	require.NoError(t, err)
	require.Equal(t, 1.0, auc)
}

func TestAUCROC_PerfectInversion(t *testing.T) {
	labels := []int{1, 1, 0, 0}
	scores := []float64{0.1, 0.2, 0.8, 0.9}

	auc, err := AUCROC(labels, scores)
	require.NoError(t, err)
	require.Equal(t, 0.0, auc)
}

func TestAUCROC_AllTied(t *testing.T) {
	labels := []int{0, 1, 0, 1}
	scores := []float64{0.5, 0.5, 0.5, 0.5}

	auc, err := AUCROC(labels, scores)
	require.NoError(t, err)
	require.Equal(t, 0.5, auc)
}

func TestAUCROC_PartialOverlap(t *testing.T) {
	// One misordered pair out of four: AUC = 3/4.
	labels := []int{0, 1, 0, 1}
	scores := []float64{0.1, 0.4, 0.6, 0.9}

	auc, err := AUCROC(labels, scores)
	require.NoError(t, err)
	require.InDelta(t, 0.75, auc, 1e-12)
}

func TestAUCROC_SingleClass(t *testing.T) {
	_, err := AUCROC([]int{1, 1}, []float64{0.1, 0.9})
	require.Error(t, err)

	_, err = AUCROC([]int{0, 0}, []float64{0.1, 0.9})
	require.Error(t, err)
}

func TestAUCROC_LengthMismatch(t *testing.T) {
	_, err := AUCROC([]int{0, 1}, []float64{0.5})
	require.Error(t, err)
}

func TestPrecisionAt90Recall_FirstQualifyingThreshold(t *testing.T) {
	// The smallest threshold predicts every example positive, so recall is
	// already 1.0 there and the reported precision is the positive rate.
	labels := []int{0, 0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.3, 0.8, 0.9}

	require.InDelta(t, 2.0/5.0, PrecisionAt90Recall(labels, scores), 1e-12)
}

func TestPrecisionAt90Recall_TiedMinimumScores(t *testing.T) {
	// Duplicate scores collapse to one threshold; the curve still starts
	// at full recall.
	labels := []int{0, 1, 0, 1}
	scores := []float64{0.2, 0.2, 0.7, 0.9}

	require.InDelta(t, 2.0/4.0, PrecisionAt90Recall(labels, scores), 1e-12)
}

func TestPrecisionAt90Recall_NoPositives(t *testing.T) {
	require.Equal(t, 0.0, PrecisionAt90Recall([]int{0, 0}, []float64{0.1, 0.9}))
}

func TestConfusion(t *testing.T) {
	labels := []int{0, 0, 1, 1, 1}
	scores := []float64{0.2, 0.7, 0.3, 0.8, 0.9}

	cm := Confusion(labels, scores, 0.5)
	require.Equal(t, 1, cm.TrueNegatives)
	require.Equal(t, 1, cm.FalsePositives)
	require.Equal(t, 1, cm.FalseNegatives)
	require.Equal(t, 2, cm.TruePositives)
	require.InDelta(t, 3.0/5.0, cm.Accuracy(), 1e-12)
}

func TestConfusionMatrix_Report(t *testing.T) {
	cm := ConfusionMatrix{
		TrueNegatives:  8,
		FalsePositives: 2,
		FalseNegatives: 1,
		TruePositives:  9,
	}
	reports := cm.Report()

	rug := reports[1]
	require.InDelta(t, 9.0/11.0, rug.Precision, 1e-12)
	require.InDelta(t, 9.0/10.0, rug.Recall, 1e-12)
	require.Equal(t, 10, rug.Support)

	legit := reports[0]
	require.InDelta(t, 8.0/9.0, legit.Precision, 1e-12)
	require.InDelta(t, 8.0/10.0, legit.Recall, 1e-12)
	require.Equal(t, 10, legit.Support)
}

func TestCrossValidateAUC_SeparableData(t *testing.T) {
	examples := separableExamples(100, 20)

	mean, std, err := CrossValidateAUC(examples, 5, 42, DefaultC, DefaultMaxIter)
	require.NoError(t, err)
	require.Greater(t, mean, 0.9)
	require.GreaterOrEqual(t, std, 0.0)
	require.LessOrEqual(t, mean, 1.0)
}
