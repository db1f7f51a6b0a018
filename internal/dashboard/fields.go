// Package dashboard holds the input fields and the state machine behind
// the terminal dashboard. Nothing here performs I/O.
package dashboard

import "flowguard/internal/models"

// FieldSpec describes one editable numeric input.
type FieldSpec struct {
	Name    string // feature column the value feeds
	Label   string
	Default float64
	Integer bool
}

// Fields are the inputs shown in the sidebar, in display order.
var Fields = []FieldSpec{
	{Name: "id.orig_p", Label: "Origin port", Default: 38667, Integer: true},
	{Name: "id.resp_p", Label: "Destination port", Default: 1883, Integer: true},
	{Name: "flow_duration", Label: "Flow duration", Default: 32.0},
	{Name: "fwd_pkts_tot", Label: "Forward packets", Default: 9, Integer: true},
	{Name: "bwd_pkts_tot", Label: "Backward packets", Default: 5, Integer: true},
}

// Lookup returns the field feeding the named feature.
func Lookup(name string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Collect returns the user input map for the current field values. Every
// field is present; fields missing from values take their default.
func Collect(values map[string]float64) models.UserInput {
	in := make(models.UserInput, len(Fields))
	for _, f := range Fields {
		if v, ok := values[f.Name]; ok {
			in[f.Name] = v
		} else {
			in[f.Name] = f.Default
		}
	}
	return in
}

// Seed turns externally sourced values into field change events, in field
// order. Values for names that are not input fields are dropped.
func Seed(values map[string]float64) []Event {
	var events []Event
	for _, f := range Fields {
		if v, ok := values[f.Name]; ok {
			events = append(events, FieldChanged{Name: f.Name, Value: v})
		}
	}
	return events
}
