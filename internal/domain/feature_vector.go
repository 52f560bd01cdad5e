package domain

// FeatureVector maps schema feature names to numeric values.
// Boolean-valued features are encoded as 0.0/1.0.
type FeatureVector map[string]float64

// Clone returns a deep copy of the vector.
func (fv FeatureVector) Clone() FeatureVector {
	out := make(FeatureVector, len(fv))
	for k, v := range fv {
		out[k] = v
	}
	return out
}

// LabeledExample is one training row: a feature vector plus the binary
// rug-pull label. Read once from a dataset at training time; immutable.
type LabeledExample struct {
	Features FeatureVector
	// IsRugPull is 1 for rug pulls, 0 for legitimate tokens.
	IsRugPull int
}
