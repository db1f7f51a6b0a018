// Package model loads the pre-trained flow classification pipeline and
// exposes it behind small capability interfaces.
package model

import "errors"

var (
	// ErrLoad reports a missing, unreadable or incompatible model artifact.
	ErrLoad = errors.New("model load error")
	// ErrSchema reports a pipeline that does not declare its input features.
	ErrSchema = errors.New("model schema error")
)

// Pipeline is a loaded model that can produce a point prediction.
type Pipeline interface {
	// FeatureNames returns the expected input columns in declared order.
	FeatureNames() []string
	// Predict returns the class label for a single feature row.
	Predict(row []float64) (string, error)
}

// ProbabilisticPipeline is a Pipeline that can also estimate class
// probabilities. The returned distribution is aligned with Classes().
type ProbabilisticPipeline interface {
	Pipeline
	Classes() []string
	PredictProba(row []float64) ([]float64, error)
}

// Capabilities is the result of inspecting a loaded pipeline once.
type Capabilities struct {
	Point Pipeline
	// Proba is nil when the pipeline only supports point prediction.
	Proba ProbabilisticPipeline
}

// Inspect resolves which optional operations p supports.
func Inspect(p Pipeline) Capabilities {
	c := Capabilities{Point: p}
	if pp, ok := p.(ProbabilisticPipeline); ok {
		c.Proba = pp
	}
	return c
}
