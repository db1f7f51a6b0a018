package model

import (
	"encoding/json"
	"fmt"
	"math"
)

const nativeFormat = "flowguard.pipeline/v1"

const (
	KindGradientBoosting = "gradient_boosting"
	KindDecisionTree     = "decision_tree"
)

// artifact is the on-disk JSON layout of a native pipeline.
type artifact struct {
	Format       string    `json:"format"`
	Kind         string    `json:"kind"`
	FeatureNames []string  `json:"feature_names"`
	Classes      []string  `json:"classes"`
	Scaler       *scaler   `json:"scaler,omitempty"`
	LearningRate float64   `json:"learning_rate,omitempty"`
	Init         []float64 `json:"init,omitempty"`
	Estimators   [][]tree  `json:"estimators,omitempty"`
	Tree         *tree     `json:"tree,omitempty"`
}

// scaler standardises each column as (x - mean) / scale.
type scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type tree struct {
	Nodes []treeNode `json:"nodes"`
}

type treeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// decodeNative parses and validates a native artifact.
func decodeNative(payload []byte) (Pipeline, error) {
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %v", ErrLoad, err)
	}
	if a.Format != nativeFormat {
		return nil, fmt.Errorf("%w: unsupported artifact format %q", ErrLoad, a.Format)
	}
	if len(a.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: artifact declares no feature names", ErrSchema)
	}
	if len(a.Classes) < 2 {
		return nil, fmt.Errorf("%w: artifact needs at least two classes, got %d", ErrLoad, len(a.Classes))
	}
	if a.Scaler != nil {
		if err := a.Scaler.validate(len(a.FeatureNames)); err != nil {
			return nil, fmt.Errorf("%w: scaler: %v", ErrLoad, err)
		}
	}

	switch a.Kind {
	case KindGradientBoosting:
		g, err := newGradientBoosting(a)
		if err != nil {
			return nil, err
		}
		return g, nil
	case KindDecisionTree:
		d, err := newDecisionTree(a)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unsupported pipeline kind %q", ErrLoad, a.Kind)
	}
}

func (s *scaler) validate(n int) error {
	if len(s.Mean) != n || len(s.Scale) != n {
		return fmt.Errorf("expected %d means and scales, got %d and %d", n, len(s.Mean), len(s.Scale))
	}
	for i, v := range s.Scale {
		if v == 0 {
			return fmt.Errorf("zero scale for column %d", i)
		}
	}
	return nil
}

func (s *scaler) apply(row []float64) []float64 {
	out := make([]float64, len(row))
	if s == nil {
		copy(out, row)
		return out
	}
	for i, v := range row {
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out
}

func (t tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.FeatureIdx)
		}
		if n.LeftChild <= i || n.LeftChild >= len(t.Nodes) || n.RightChild <= i || n.RightChild >= len(t.Nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// eval walks from the root to a leaf and returns the leaf value.
// Children always point forward, so the walk terminates.
func (t tree) eval(x []float64) float64 {
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.IsLeaf {
			return n.Value
		}
		if x[n.FeatureIdx] <= n.Threshold {
			idx = n.LeftChild
		} else {
			idx = n.RightChild
		}
	}
}

// gradientBoosting is an additive tree ensemble trained on the deviance
// loss. Two-class models carry one tree per stage, others one per class.
type gradientBoosting struct {
	features     []string
	classes      []string
	scaler       *scaler
	learningRate float64
	init         []float64
	stages       [][]tree
}

func newGradientBoosting(a artifact) (*gradientBoosting, error) {
	perStage := len(a.Classes)
	if perStage == 2 {
		perStage = 1
	}
	if len(a.Init) != perStage {
		return nil, fmt.Errorf("%w: expected %d init scores, got %d", ErrLoad, perStage, len(a.Init))
	}
	if len(a.Estimators) == 0 {
		return nil, fmt.Errorf("%w: gradient boosting without estimators", ErrLoad)
	}
	for s, stage := range a.Estimators {
		if len(stage) != perStage {
			return nil, fmt.Errorf("%w: stage %d has %d trees, expected %d", ErrLoad, s, len(stage), perStage)
		}
		for k, t := range stage {
			if err := t.validate(len(a.FeatureNames)); err != nil {
				return nil, fmt.Errorf("%w: stage %d tree %d: %v", ErrLoad, s, k, err)
			}
		}
	}
	return &gradientBoosting{
		features:     a.FeatureNames,
		classes:      a.Classes,
		scaler:       a.Scaler,
		learningRate: a.LearningRate,
		init:         a.Init,
		stages:       a.Estimators,
	}, nil
}

func (g *gradientBoosting) FeatureNames() []string { return append([]string(nil), g.features...) }
func (g *gradientBoosting) Classes() []string      { return append([]string(nil), g.classes...) }

func (g *gradientBoosting) PredictProba(row []float64) ([]float64, error) {
	if err := checkRow(row, len(g.features)); err != nil {
		return nil, err
	}
	x := g.scaler.apply(row)

	raw := append([]float64(nil), g.init...)
	for _, stage := range g.stages {
		for k, t := range stage {
			raw[k] += g.learningRate * t.eval(x)
		}
	}

	if len(g.classes) == 2 {
		p := sigmoid(raw[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(raw), nil
}

func (g *gradientBoosting) Predict(row []float64) (string, error) {
	proba, err := g.PredictProba(row)
	if err != nil {
		return "", err
	}
	return g.classes[argmax(proba)], nil
}

// decisionTree is a single classification tree whose leaves hold class
// indices. It cannot estimate probabilities.
type decisionTree struct {
	features []string
	classes  []string
	scaler   *scaler
	tree     tree
}

func newDecisionTree(a artifact) (*decisionTree, error) {
	if a.Tree == nil {
		return nil, fmt.Errorf("%w: decision tree artifact without tree", ErrLoad)
	}
	if err := a.Tree.validate(len(a.FeatureNames)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	for i, n := range a.Tree.Nodes {
		if !n.IsLeaf {
			continue
		}
		if c := int(n.Value); float64(c) != n.Value || c < 0 || c >= len(a.Classes) {
			return nil, fmt.Errorf("%w: leaf %d: class index %v out of range", ErrLoad, i, n.Value)
		}
	}
	return &decisionTree{
		features: a.FeatureNames,
		classes:  a.Classes,
		scaler:   a.Scaler,
		tree:     *a.Tree,
	}, nil
}

func (d *decisionTree) FeatureNames() []string { return append([]string(nil), d.features...) }

func (d *decisionTree) Predict(row []float64) (string, error) {
	if err := checkRow(row, len(d.features)); err != nil {
		return "", err
	}
	return d.classes[int(d.tree.eval(d.scaler.apply(row)))], nil
}

func checkRow(row []float64, n int) error {
	if len(row) != n {
		return fmt.Errorf("feature row has %d values, pipeline expects %d", len(row), n)
	}
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(raw []float64) []float64 {
	hi := raw[0]
	for _, v := range raw[1:] {
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(raw))
	var sum float64
	for i, v := range raw {
		out[i] = math.Exp(v - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the first index of the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
