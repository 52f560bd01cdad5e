package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPriorVersion is returned by Rollback when the rollback slot is empty,
// e.g. immediately after startup or after a previous rollback.
var ErrNoPriorVersion = errors.New("no prior model version to roll back to")

// FeatureError reports a scoring call whose input vector is missing features
// required by the active artifact. Fatal for that call only; engine state
// and other callers are unaffected.
type FeatureError struct {
	Missing []string
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("missing required features: %s", strings.Join(e.Missing, ", "))
}
