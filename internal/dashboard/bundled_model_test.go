package dashboard

import (
	"testing"

	"flowguard/internal/inference"
	"flowguard/internal/model"
	"flowguard/internal/models"
)

func TestBundledModel(t *testing.T) {
	p, err := model.Load(model.Options{Path: "../../models/gradient_boosting.json"})
	if err != nil {
		t.Fatalf("load bundled model: %v", err)
	}
	caps := model.Inspect(p)
	if caps.Proba == nil {
		t.Fatal("bundled model should estimate probabilities")
	}

	tests := []struct {
		name    string
		events  []Event
		label   string
		verdict models.Verdict
	}{
		{"defaults", nil, "Normal", models.VerdictSecure},
		{"web port", []Event{FieldChanged{Name: "id.resp_p", Value: 80}}, "Thing_Speak", models.VerdictSecure},
		{"syn flood", []Event{
			FieldChanged{Name: "fwd_pkts_tot", Value: 200},
			FieldChanged{Name: "bwd_pkts_tot", Value: 0},
		}, "DOS_SYN_Hping", models.VerdictAttack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Replay(New(p.FeatureNames()), tt.events...)
			res, err := inference.Analyze(caps, s.Vector)
			if err != nil {
				t.Fatal(err)
			}
			if res.Label != tt.label || res.Verdict != tt.verdict {
				t.Errorf("got %s (%v), want %s (%v)", res.Label, res.Verdict, tt.label, tt.verdict)
			}
			if len(res.Probabilities) != 4 {
				t.Errorf("expected 4 class probabilities, got %d", len(res.Probabilities))
			}
		})
	}
}
