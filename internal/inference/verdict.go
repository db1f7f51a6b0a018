// Package inference runs the loaded pipeline on one resolved flow and
// interprets the result.
package inference

import "flowguard/internal/models"

// benign lists the labels treated as normal traffic. Matching is exact and
// case-sensitive; every other label, including ones the model learns
// later, counts as an attack.
var benign = map[string]struct{}{
	"Normal":      {},
	"Thing_Speak": {},
}

// IsBenign reports whether label belongs to the benign set.
func IsBenign(label string) bool {
	_, ok := benign[label]
	return ok
}

// Classify maps a predicted label to a verdict.
func Classify(label string) models.Verdict {
	if IsBenign(label) {
		return models.VerdictSecure
	}
	return models.VerdictAttack
}
