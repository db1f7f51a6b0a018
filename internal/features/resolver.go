// Package features reconciles user-supplied values with the column layout
// a pipeline expects.
package features

import (
	"fmt"

	"flowguard/internal/model"
)

// Default is the value used for expected columns the user did not supply.
const Default = 0.0

// Vector is one complete feature row in the pipeline's declared order.
type Vector struct {
	Names  []string
	Values []float64
}

// Resolve builds the row for expected. Each column takes the provided
// value when present and Default otherwise; provided names that are not
// expected are ignored. Values pass through unchanged.
func Resolve(expected []string, provided map[string]float64) (Vector, error) {
	if len(expected) == 0 {
		return Vector{}, fmt.Errorf("%w: no expected feature names", model.ErrSchema)
	}

	v := Vector{
		Names:  make([]string, len(expected)),
		Values: make([]float64, len(expected)),
	}
	copy(v.Names, expected)
	for i, name := range expected {
		if val, ok := provided[name]; ok {
			v.Values[i] = val
		} else {
			v.Values[i] = Default
		}
	}
	return v, nil
}

// Len returns the number of columns.
func (v Vector) Len() int { return len(v.Names) }

// Row returns a copy of the values, ready to hand to a pipeline.
func (v Vector) Row() []float64 {
	return append([]float64(nil), v.Values...)
}

// Head returns the first n columns.
func (v Vector) Head(n int) Vector {
	if n > len(v.Names) {
		n = len(v.Names)
	}
	if n < 0 {
		n = 0
	}
	return Vector{
		Names:  append([]string(nil), v.Names[:n]...),
		Values: append([]float64(nil), v.Values[:n]...),
	}
}

// Value returns the value of the named column.
func (v Vector) Value(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}
