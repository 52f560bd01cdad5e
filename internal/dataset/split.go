package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"token-risk-lab/internal/domain"
)

// DefaultSeed makes split and cross-validation results reproducible across
// runs given identical input.
const DefaultSeed = 42

// StratifiedSplit partitions examples into train/test preserving the
// positive-class ratio in both partitions. The shuffle is seeded, so the
// split is deterministic for identical input.
func StratifiedSplit(examples []domain.LabeledExample, testFraction float64, seed int64) (train, test []domain.LabeledExample, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction %v outside (0,1)", testFraction)
	}
	if len(examples) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 examples to split, got %d", len(examples))
	}

	rng := rand.New(rand.NewSource(seed))
	for _, class := range splitByClass(examples) {
		shuffled := shuffle(class, rng)
		nTest := int(math.Round(float64(len(shuffled)) * testFraction))
		// Keep at least one example of each class in the training partition.
		if nTest >= len(shuffled) {
			nTest = len(shuffled) - 1
		}
		test = append(test, shuffled[:nTest]...)
		train = append(train, shuffled[nTest:]...)
	}

	return train, test, nil
}

// Fold is one cross-validation partition.
type Fold struct {
	Train []domain.LabeledExample
	Test  []domain.LabeledExample
}

// StratifiedKFold produces k folds, each preserving the overall class ratio.
// Deterministic for identical input and seed.
func StratifiedKFold(examples []domain.LabeledExample, k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k must be at least 2, got %d", k)
	}
	if len(examples) < k {
		return nil, fmt.Errorf("need at least %d examples for %d folds, got %d", k, k, len(examples))
	}

	rng := rand.New(rand.NewSource(seed))

	// Assign each example a fold index, class by class, round-robin over
	// a shuffled class so every fold sees roughly the same class mix.
	testSets := make([][]domain.LabeledExample, k)
	for _, class := range splitByClass(examples) {
		shuffled := shuffle(class, rng)
		for i, ex := range shuffled {
			f := i % k
			testSets[f] = append(testSets[f], ex)
		}
	}

	folds := make([]Fold, k)
	for f := 0; f < k; f++ {
		folds[f].Test = testSets[f]
		for other := 0; other < k; other++ {
			if other != f {
				folds[f].Train = append(folds[f].Train, testSets[other]...)
			}
		}
	}
	return folds, nil
}

// CountLabels returns the number of negative and positive examples.
func CountLabels(examples []domain.LabeledExample) (negatives, positives int) {
	for _, ex := range examples {
		if ex.IsRugPull == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return negatives, positives
}

// splitByClass groups examples by label, preserving input order within
// each group. Negatives first, then positives.
func splitByClass(examples []domain.LabeledExample) [][]domain.LabeledExample {
	var neg, pos []domain.LabeledExample
	for _, ex := range examples {
		if ex.IsRugPull == 1 {
			pos = append(pos, ex)
		} else {
			neg = append(neg, ex)
		}
	}

	var classes [][]domain.LabeledExample
	if len(neg) > 0 {
		classes = append(classes, neg)
	}
	if len(pos) > 0 {
		classes = append(classes, pos)
	}
	return classes
}

// shuffle returns a shuffled copy, leaving the input untouched.
func shuffle(examples []domain.LabeledExample, rng *rand.Rand) []domain.LabeledExample {
	out := make([]domain.LabeledExample, len(examples))
	copy(out, examples)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
