// Package training fits and evaluates the logistic-regression risk model
// and exports it as a model artifact. The optimizer is a closed step: the
// contract is the output shape (one weight per schema feature plus an
// intercept), not the optimizer internals.
package training

import (
	"fmt"
	"math"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/schema"
)

// Fit hyperparameters. C is the inverse L2 regularization strength,
// matching the common convention (larger C = weaker regularization).
const (
	DefaultC       = 1.0
	DefaultMaxIter = 1000
	defaultTol     = 1e-6
)

// FitResult holds raw (unscaled) coefficients in natural feature units,
// plus the coefficients on standardized features. StdWeights is the
// scale-invariant view: it measures each feature's effect per standard
// deviation and is what importance rankings use, since natural-unit
// coefficients shrink for large-scale features and inflate for small ones.
type FitResult struct {
	Weights    map[string]float64
	StdWeights map[string]float64
	Intercept  float64
}

// Fit trains an L2-regularized logistic regression on the examples.
// Features are standardized internally for numerical stability; the
// returned coefficients are folded back into natural feature units, so
// predictions use raw feature values directly.
func Fit(examples []domain.LabeledExample, c float64, maxIter int) (*FitResult, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("no training examples")
	}
	neg, pos := countLabels(examples)
	if neg == 0 || pos == 0 {
		return nil, fmt.Errorf("training requires both classes: %d negatives, %d positives", neg, pos)
	}
	if c <= 0 {
		c = DefaultC
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	names := schema.FeatureNames()
	x, y := toDense(examples, names)
	mean, std := columnStats(x)
	standardize(x, mean, std)

	wStd, bStd := gradientDescent(x, y, c, maxIter)

	// Fold standardization back into the coefficients:
	// w = w_std / sigma, b = b_std - sum(w_std * mu / sigma).
	weights := make(map[string]float64, len(names))
	stdWeights := make(map[string]float64, len(names))
	intercept := bStd
	for j, name := range names {
		weights[name] = wStd[j] / std[j]
		stdWeights[name] = wStd[j]
		intercept -= wStd[j] * mean[j] / std[j]
	}

	return &FitResult{Weights: weights, StdWeights: stdWeights, Intercept: intercept}, nil
}

// PredictProba computes the model probability for one feature vector using
// raw (unscaled) coefficients.
func (r *FitResult) PredictProba(fv domain.FeatureVector) float64 {
	raw := r.Intercept
	for name, w := range r.Weights {
		raw += w * fv[name]
	}
	return sigmoid(raw)
}

// gradientDescent minimizes the regularized logistic loss
//
//	(1/n) sum log(1+exp(-y z)) + 1/(2 C n) ||w||^2
//
// on standardized features. The intercept is not penalized. With unit-variance
// inputs a fixed step is stable; iteration stops early when the gradient
// norm falls below tolerance.
func gradientDescent(x [][]float64, y []int, c float64, maxIter int) (w []float64, b float64) {
	n := len(x)
	p := len(x[0])
	w = make([]float64, p)
	grad := make([]float64, p)
	lambda := 1.0 / (c * float64(n))
	step := 1.0

	for iter := 0; iter < maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0

		for i := 0; i < n; i++ {
			z := b
			for j := 0; j < p; j++ {
				z += w[j] * x[i][j]
			}
			// residual = p_i - y_i
			res := sigmoid(z) - float64(y[i])
			for j := 0; j < p; j++ {
				grad[j] += res * x[i][j]
			}
			gradB += res
		}

		norm := 0.0
		for j := 0; j < p; j++ {
			grad[j] = grad[j]/float64(n) + lambda*w[j]
			norm += grad[j] * grad[j]
		}
		gradB /= float64(n)
		norm += gradB * gradB

		if math.Sqrt(norm) < defaultTol {
			break
		}

		for j := 0; j < p; j++ {
			w[j] -= step * grad[j]
		}
		b -= step * gradB
	}
	return w, b
}

// toDense lays examples out as a dense matrix in schema column order.
func toDense(examples []domain.LabeledExample, names []string) ([][]float64, []int) {
	x := make([][]float64, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		row := make([]float64, len(names))
		for j, name := range names {
			row[j] = ex.Features[name]
		}
		x[i] = row
		y[i] = ex.IsRugPull
	}
	return x, y
}

// columnStats computes per-column mean and standard deviation.
// Constant columns get std 1 so standardization is a no-op for them.
func columnStats(x [][]float64) (mean, std []float64) {
	n := float64(len(x))
	p := len(x[0])
	mean = make([]float64, p)
	std = make([]float64, p)

	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return mean, std
}

func standardize(x [][]float64, mean, std []float64) {
	for _, row := range x {
		for j := range row {
			row[j] = (row[j] - mean[j]) / std[j]
		}
	}
}

func sigmoid(z float64) float64 {
	// Split to avoid overflow in exp for large |z|.
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

func countLabels(examples []domain.LabeledExample) (neg, pos int) {
	for _, ex := range examples {
		if ex.IsRugPull == 1 {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}
