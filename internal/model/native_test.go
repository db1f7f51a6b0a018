package model

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func leaf(v float64) treeNode {
	return treeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: v, IsLeaf: true}
}

func split(feature int, threshold float64, left, right int) treeNode {
	return treeNode{FeatureIdx: feature, Threshold: threshold, LeftChild: left, RightChild: right}
}

func writeArtifact(t *testing.T, a artifact) string {
	t.Helper()
	payload, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func multiclassArtifact() artifact {
	return artifact{
		Format:       nativeFormat,
		Kind:         KindGradientBoosting,
		FeatureNames: []string{"fwd_pkts_tot", "bwd_pkts_tot"},
		Classes:      []string{"Normal", "DoS", "Thing_Speak"},
		LearningRate: 1.0,
		Init:         []float64{0, 0, 0},
		Estimators: [][]tree{{
			{Nodes: []treeNode{leaf(0)}},
			{Nodes: []treeNode{split(0, 5, 1, 2), leaf(2), leaf(-2)}},
			{Nodes: []treeNode{leaf(0.5)}},
		}},
	}
}

func binaryArtifact() artifact {
	return artifact{
		Format:       nativeFormat,
		Kind:         KindGradientBoosting,
		FeatureNames: []string{"fwd_pkts_tot", "bwd_pkts_tot"},
		Classes:      []string{"Normal", "DoS"},
		LearningRate: 0.5,
		Init:         []float64{0},
		Estimators: [][]tree{{
			{Nodes: []treeNode{split(1, 3, 1, 2), leaf(-4), leaf(4)}},
		}},
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "absent.json")})
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestLoadRejectsBrokenArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*artifact)
		want   error
	}{
		{"wrong format", func(a *artifact) { a.Format = "pickle" }, ErrLoad},
		{"unknown kind", func(a *artifact) { a.Kind = "svm" }, ErrLoad},
		{"no features", func(a *artifact) { a.FeatureNames = nil }, ErrSchema},
		{"single class", func(a *artifact) { a.Classes = []string{"Normal"} }, ErrLoad},
		{"init mismatch", func(a *artifact) { a.Init = []float64{0} }, ErrLoad},
		{"feature out of range", func(a *artifact) {
			a.Estimators[0][1].Nodes[0].FeatureIdx = 7
		}, ErrLoad},
		{"backward child", func(a *artifact) {
			a.Estimators[0][1].Nodes[0].LeftChild = 0
		}, ErrLoad},
		{"scaler length", func(a *artifact) {
			a.Scaler = &scaler{Mean: []float64{0}, Scale: []float64{1}}
		}, ErrLoad},
		{"zero scale", func(a *artifact) {
			a.Scaler = &scaler{Mean: []float64{0, 0}, Scale: []float64{1, 0}}
		}, ErrLoad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := multiclassArtifact()
			tt.mutate(&a)
			_, err := Load(Options{Path: writeArtifact(t, a)})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte("\x80\x04\x95joblib"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(Options{Path: path}); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestGradientBoostingMulticlass(t *testing.T) {
	p, err := Load(Options{Path: writeArtifact(t, multiclassArtifact())})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pp, ok := p.(ProbabilisticPipeline)
	if !ok {
		t.Fatal("gradient boosting should estimate probabilities")
	}

	tests := []struct {
		row  []float64
		want string
	}{
		{[]float64{1, 0}, "DoS"},
		{[]float64{10, 0}, "Thing_Speak"},
	}
	for _, tt := range tests {
		label, err := pp.Predict(tt.row)
		if err != nil {
			t.Fatalf("predict %v: %v", tt.row, err)
		}
		if label != tt.want {
			t.Errorf("predict %v = %q, want %q", tt.row, label, tt.want)
		}

		proba, err := pp.PredictProba(tt.row)
		if err != nil {
			t.Fatalf("predict proba: %v", err)
		}
		if len(proba) != len(pp.Classes()) {
			t.Fatalf("got %d probabilities for %d classes", len(proba), len(pp.Classes()))
		}
		var sum float64
		for _, v := range proba {
			if v < 0 || v > 1 {
				t.Errorf("probability %v outside [0,1]", v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("probabilities sum to %v", sum)
		}
	}
}

func TestGradientBoostingBinary(t *testing.T) {
	p, err := Load(Options{Path: writeArtifact(t, binaryArtifact())})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pp := p.(ProbabilisticPipeline)

	proba, err := pp.PredictProba([]float64{9, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := 1 / (1 + math.Exp(2))
	if math.Abs(proba[1]-want) > 1e-12 || math.Abs(proba[0]+proba[1]-1) > 1e-12 {
		t.Errorf("unexpected distribution %v", proba)
	}

	if label, _ := pp.Predict([]float64{9, 1}); label != "Normal" {
		t.Errorf("low backward count should be Normal, got %q", label)
	}
	if label, _ := pp.Predict([]float64{9, 10}); label != "DoS" {
		t.Errorf("high backward count should be DoS, got %q", label)
	}
}

func TestScalerRunsBeforeTrees(t *testing.T) {
	a := binaryArtifact()
	// bwd 10 scales to (10-8)/1 = 2, which is under the split threshold.
	a.Scaler = &scaler{Mean: []float64{0, 8}, Scale: []float64{1, 1}}
	p, err := Load(Options{Path: writeArtifact(t, a)})
	if err != nil {
		t.Fatal(err)
	}
	if label, _ := p.Predict([]float64{9, 10}); label != "Normal" {
		t.Errorf("expected scaled row to be Normal, got %q", label)
	}
}

func TestDecisionTreeIsPointOnly(t *testing.T) {
	a := artifact{
		Format:       nativeFormat,
		Kind:         KindDecisionTree,
		FeatureNames: []string{"id.resp_p"},
		Classes:      []string{"Normal", "MQTT_Publish"},
		Tree:         &tree{Nodes: []treeNode{split(0, 1000, 1, 2), leaf(0), leaf(1)}},
	}
	p, err := Load(Options{Path: writeArtifact(t, a), Format: FormatNative})
	if err != nil {
		t.Fatal(err)
	}
	if Inspect(p).Proba != nil {
		t.Error("decision tree must not advertise probabilities")
	}
	if label, _ := p.Predict([]float64{1883}); label != "MQTT_Publish" {
		t.Errorf("got %q", label)
	}
	if _, err := p.Predict([]float64{1, 2}); err == nil {
		t.Error("expected row length error")
	}
}

func TestDecisionTreeRejectsBadLeaf(t *testing.T) {
	a := artifact{
		Format:       nativeFormat,
		Kind:         KindDecisionTree,
		FeatureNames: []string{"id.resp_p"},
		Classes:      []string{"Normal", "DoS"},
		Tree:         &tree{Nodes: []treeNode{leaf(1.5)}},
	}
	if _, err := Load(Options{Path: writeArtifact(t, a)}); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestFeatureNamesAreCopies(t *testing.T) {
	p, err := Load(Options{Path: writeArtifact(t, multiclassArtifact())})
	if err != nil {
		t.Fatal(err)
	}
	names := p.FeatureNames()
	names[0] = "mutated"
	if p.FeatureNames()[0] != "fwd_pkts_tot" {
		t.Error("pipeline schema changed through returned slice")
	}
}
