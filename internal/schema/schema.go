// Package schema defines the fixed feature schema consumed by risk models.
// The schema is a closed, ordered enumeration: every model artifact and every
// training dataset is validated against it explicitly.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Feature names, in canonical column order.
const (
	GiniCoefficient     = "gini_coefficient"
	Top10Percentage     = "top_10_percentage"
	TotalHolders        = "total_holders"
	LiquidityUSD        = "liquidity_usd"
	HasMintAuthority    = "has_mint_authority"
	HasFreezeAuthority  = "has_freeze_authority"
	Verified            = "verified"
	Audited             = "audited"
	CommunityTrustScore = "community_trust_score"
	SentimentScore      = "sentiment_score"
	TokenAgeDays        = "token_age_days"
	Volume24h           = "volume_24h"
	PriceVolatility     = "price_volatility"
)

// LabelColumn is the binary label column in training datasets.
const LabelColumn = "is_rug_pull"

// featureNames is the canonical ordering. Order matters for dense vectors
// handed to the optimizer and for deterministic output.
var featureNames = []string{
	GiniCoefficient,
	Top10Percentage,
	TotalHolders,
	LiquidityUSD,
	HasMintAuthority,
	HasFreezeAuthority,
	Verified,
	Audited,
	CommunityTrustScore,
	SentimentScore,
	TokenAgeDays,
	Volume24h,
	PriceVolatility,
}

var featureSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(featureNames))
	for _, name := range featureNames {
		s[name] = struct{}{}
	}
	return s
}()

// FeatureNames returns the schema's feature names in canonical order.
// The returned slice is a copy.
func FeatureNames() []string {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return names
}

// FeatureCount returns the number of features in the schema.
func FeatureCount() int {
	return len(featureNames)
}

// IsFeature reports whether name is a schema feature.
func IsFeature(name string) bool {
	_, ok := featureSet[name]
	return ok
}

// SchemaError reports dataset columns or artifact keys that are required by
// the schema but absent from the input.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidateColumns checks that columns contains every schema feature plus the
// label column. Extra columns are ignored. Returns *SchemaError naming the
// missing columns, sorted for deterministic output.
func ValidateColumns(columns []string) error {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, name := range featureNames {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if _, ok := present[LabelColumn]; !ok {
		missing = append(missing, LabelColumn)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Missing: missing}
	}
	return nil
}

// ValidateWeightKeys checks that keys match the schema exactly: no feature
// missing, no extra key. Used for artifact validation where the weight set
// must mirror the schema one-to-one.
func ValidateWeightKeys(keys map[string]float64) (missing, extra []string) {
	for _, name := range featureNames {
		if _, ok := keys[name]; !ok {
			missing = append(missing, name)
		}
	}
	for k := range keys {
		if !IsFeature(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}
