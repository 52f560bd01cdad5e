// Package dataset loads labeled training data and partitions it for
// fitting and evaluation. Column validation is strict: a dataset missing
// any schema column fails before any training is attempted.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/schema"
)

// LoadCSV reads a labeled dataset from a CSV file. The header row must
// contain every schema feature plus the label column; extra columns are
// ignored. Returns *schema.SchemaError when required columns are absent.
func LoadCSV(path string) ([]domain.LabeledExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses labeled examples from CSV content.
func ReadCSV(r io.Reader) ([]domain.LabeledExample, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if err := schema.ValidateColumns(header); err != nil {
		return nil, err
	}

	// Column index per schema feature; extra columns stay unmapped.
	featureIdx := make(map[string]int, schema.FeatureCount())
	labelIdx := -1
	for i, col := range header {
		if col == schema.LabelColumn {
			labelIdx = i
			continue
		}
		if schema.IsFeature(col) {
			featureIdx[col] = i
		}
	}

	var examples []domain.LabeledExample
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", line, err)
		}

		fv := make(domain.FeatureVector, len(featureIdx))
		for name, idx := range featureIdx {
			v, err := parseNumeric(record[idx])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line, name, err)
			}
			fv[name] = v
		}

		label, err := parseLabel(record[labelIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", line, schema.LabelColumn, err)
		}

		examples = append(examples, domain.LabeledExample{
			Features:  fv,
			IsRugPull: label,
		})
	}

	return examples, nil
}

// parseNumeric parses a feature value. Boolean-valued features may appear
// as true/false in hand-written fixtures; they map to 1.0/0.0.
func parseNumeric(s string) (float64, error) {
	switch s {
	case "true", "True", "TRUE":
		return 1.0, nil
	case "false", "False", "FALSE":
		return 0.0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric value %q: %w", s, err)
	}
	return v, nil
}

// parseLabel parses the binary label, accepting 0/1 in integer or float form.
func parseLabel(s string) (int, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse label %q: %w", s, err)
	}
	switch v {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return 0, fmt.Errorf("label %q is not binary", s)
}
