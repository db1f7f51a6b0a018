package inference

import (
	"fmt"

	"flowguard/internal/features"
	"flowguard/internal/model"
	"flowguard/internal/models"
)

// Analyze predicts the class of v and, when the pipeline supports it, the
// probability of every class. The caller owns the result; nothing is
// recorded here.
func Analyze(caps model.Capabilities, v features.Vector) (models.Prediction, error) {
	row := v.Row()

	label, err := caps.Point.Predict(row)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	result := models.Prediction{
		Label:   label,
		Verdict: Classify(label),
	}

	if caps.Proba == nil {
		return result, nil
	}

	proba, err := caps.Proba.PredictProba(row)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("predict probabilities: %w", err)
	}
	classes := caps.Proba.Classes()
	if len(proba) != len(classes) {
		return models.Prediction{}, fmt.Errorf("pipeline returned %d probabilities for %d classes", len(proba), len(classes))
	}

	result.Probabilities = make([]models.ClassProbability, len(classes))
	for i, class := range classes {
		result.Probabilities[i] = models.ClassProbability{Class: class, Probability: proba[i]}
	}
	return result, nil
}
