package models

// UserInput maps a feature name to the value entered for it.
type UserInput map[string]float64

// Verdict is the security reading of a predicted label.
type Verdict int

const (
	VerdictAttack Verdict = iota
	VerdictSecure
)

func (v Verdict) String() string {
	if v == VerdictSecure {
		return "secure"
	}
	return "attack"
}

// ClassProbability pairs one class label with its probability mass.
type ClassProbability struct {
	Class       string
	Probability float64
}

// Prediction is the outcome of analysing one flow.
type Prediction struct {
	Label   string
	Verdict Verdict
	// Probabilities is nil when the pipeline cannot estimate them.
	Probabilities []ClassProbability
}
