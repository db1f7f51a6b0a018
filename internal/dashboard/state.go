package dashboard

import (
	"flowguard/internal/features"
	"flowguard/internal/models"
)

// Phase is the dashboard's position in its state machine.
type Phase int

const (
	// PhaseIdle shows the input preview without a result.
	PhaseIdle Phase = iota
	// PhaseAnalyzed shows the result for the current inputs.
	PhaseAnalyzed
	// PhaseFailed is terminal: the model could not be loaded or has no schema.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAnalyzed:
		return "analyzed"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// State is everything the view needs. Treat it as a value: Reduce returns
// a new State and never modifies its argument.
type State struct {
	Phase  Phase
	Schema []string
	Inputs models.UserInput
	Vector features.Vector
	// Revision increases with every input change so results computed for
	// older inputs can be recognised and dropped.
	Revision int
	Result   *models.Prediction
	// Fault is the last inference failure for the current inputs.
	Fault error
	// Err is the fatal load or schema error in PhaseFailed.
	Err error
}

// New builds the initial state for a pipeline declaring schema.
func New(schema []string) State {
	s := State{
		Schema: append([]string(nil), schema...),
		Inputs: Collect(nil),
	}
	v, err := features.Resolve(s.Schema, s.Inputs)
	if err != nil {
		return Failed(err)
	}
	s.Vector = v
	return s
}

// Failed builds the terminal state for a fatal error.
func Failed(err error) State {
	return State{Phase: PhaseFailed, Err: err}
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// FieldChanged reports a new value for one input field.
type FieldChanged struct {
	Name  string
	Value float64
}

// AnalysisCompleted carries the outcome of an analysis started at Revision.
type AnalysisCompleted struct {
	Revision int
	Result   models.Prediction
	Err      error
}

func (FieldChanged) isEvent()      {}
func (AnalysisCompleted) isEvent() {}

// Reduce applies ev to s.
func Reduce(s State, ev Event) State {
	if s.Phase == PhaseFailed {
		return s
	}

	switch ev := ev.(type) {
	case FieldChanged:
		if _, ok := Lookup(ev.Name); !ok {
			return s
		}
		if cur, ok := s.Inputs[ev.Name]; ok && cur == ev.Value {
			return s
		}

		inputs := make(models.UserInput, len(s.Inputs))
		for k, v := range s.Inputs {
			inputs[k] = v
		}
		inputs[ev.Name] = ev.Value

		v, err := features.Resolve(s.Schema, inputs)
		if err != nil {
			return Failed(err)
		}

		s.Inputs = inputs
		s.Vector = v
		s.Revision++
		s.Phase = PhaseIdle
		s.Result = nil
		s.Fault = nil
		return s

	case AnalysisCompleted:
		if ev.Revision != s.Revision {
			return s
		}
		if ev.Err != nil {
			s.Phase = PhaseIdle
			s.Result = nil
			s.Fault = ev.Err
			return s
		}
		result := ev.Result
		s.Phase = PhaseAnalyzed
		s.Result = &result
		s.Fault = nil
		return s
	}
	return s
}

// Replay folds events into s in order.
func Replay(s State, events ...Event) State {
	for _, ev := range events {
		s = Reduce(s, ev)
	}
	return s
}
