// Package scoring holds the runtime scoring engine: an immutable model
// artifact behind an atomically-swappable reference, serving concurrent
// score requests while supporting hot reload and rollback.
package scoring

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/model"
)

// Engine serves score requests against the currently active artifact.
//
// Score is lock-free: it reads a single atomic reference and never mutates
// shared state, so any number of callers may score concurrently. Reload and
// Rollback are serialized with a mutex but replace the active artifact with
// one atomic pointer swap, so in-flight Score calls always see a complete
// artifact and never a partially updated weight set.
type Engine struct {
	active atomic.Pointer[model.Artifact]

	// mu serializes Reload/Rollback. It is never taken by Score.
	mu   sync.Mutex
	prev *model.Artifact // rollback slot, depth 1
}

// Result is the outcome of one scoring call.
type Result struct {
	// Probability is the logistic output in [0, 1].
	Probability float64
	// Score is Probability rescaled to the 0-100 display range.
	Score float64
	// RiskClass is high when Probability exceeds the artifact threshold.
	RiskClass domain.RiskClass
	// ModelVersion identifies the artifact that produced this result.
	ModelVersion int64
}

// NewEngine creates an engine with a validated bootstrap artifact.
// The artifact gets version 1 when it carries none.
func NewEngine(a *model.Artifact) (*Engine, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	installed := a.Clone()
	if installed.Version == 0 {
		installed.Version = 1
	}

	e := &Engine{}
	e.active.Store(installed)
	return e, nil
}

// Score computes the risk score for one feature vector. Pure with respect to
// engine state. The vector must contain every feature the active artifact
// has a weight for; extra keys are ignored. Missing features produce a
// *FeatureError naming them.
func (e *Engine) Score(features domain.FeatureVector) (*Result, error) {
	active := e.active.Load()

	var missing []string
	for name := range active.Weights {
		if _, ok := features[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &FeatureError{Missing: missing}
	}

	raw := active.Intercept
	for name, w := range active.Weights {
		raw += w * features[name]
	}

	// Export pre-scales coefficients by ScoreScale; divide it back out
	// before squashing so the sigmoid sees natural units. The same
	// constant is applied on both sides of the document boundary.
	probability := sigmoid(raw / model.ScoreScale)

	riskClass := domain.RiskLow
	if probability > active.Threshold {
		riskClass = domain.RiskHigh
	}

	return &Result{
		Probability:  probability,
		Score:        probability * 100.0,
		RiskClass:    riskClass,
		ModelVersion: active.Version,
	}, nil
}

// Reload validates the new artifact and atomically swaps it in. The previous
// artifact moves to the rollback slot. On validation failure the active
// artifact is left untouched and the error names the failed check; the
// engine never ends up without a usable model.
func (e *Engine) Reload(a *model.Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.active.Load()
	installed := a.Clone()
	if installed.Version <= old.Version {
		installed.Version = old.Version + 1
	}

	e.prev = old
	e.active.Store(installed)
	return nil
}

// Rollback restores the previously active artifact. The rollback slot is
// consumed: a second Rollback without an intervening successful Reload
// fails with ErrNoPriorVersion.
func (e *Engine) Rollback() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.prev == nil {
		return ErrNoPriorVersion
	}
	e.active.Store(e.prev)
	e.prev = nil
	return nil
}

// Active returns the currently active artifact. The artifact is immutable;
// callers must not modify it.
func (e *Engine) Active() *model.Artifact {
	return e.active.Load()
}

// Version returns the active artifact's version.
func (e *Engine) Version() int64 {
	return e.active.Load().Version
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}
