package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// onnxManifest describes an exported ONNX graph. The graph itself does not
// carry column or class names in a portable way, so they travel alongside.
type onnxManifest struct {
	FeatureNames []string `json:"feature_names"`
	Classes      []string `json:"classes"`
	InputName    string   `json:"input_name"`
	OutputName   string   `json:"output_name"`
}

// ManifestPath returns the manifest expected next to an ONNX model.
func ManifestPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, ".onnx") + ".manifest.json"
}

func readManifest(path string) (onnxManifest, error) {
	var m onnxManifest
	payload, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("%w: read manifest: %v", ErrLoad, err)
	}
	if err := json.Unmarshal(payload, &m); err != nil {
		return m, fmt.Errorf("%w: decode manifest: %v", ErrLoad, err)
	}
	if len(m.FeatureNames) == 0 {
		return m, fmt.Errorf("%w: manifest declares no feature names", ErrSchema)
	}
	if len(m.Classes) < 2 {
		return m, fmt.Errorf("%w: manifest needs at least two classes, got %d", ErrLoad, len(m.Classes))
	}
	if m.InputName == "" {
		m.InputName = "float_input"
	}
	if m.OutputName == "" {
		m.OutputName = "probabilities"
	}
	return m, nil
}

// onnxPipeline runs a probability-producing graph through ONNX Runtime.
// The session reuses one input and one output tensor, so runs are
// serialised.
type onnxPipeline struct {
	mu       sync.Mutex
	manifest onnxManifest
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
}

func loadONNX(opts Options) (*onnxPipeline, error) {
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = ManifestPath(opts.Path)
	}
	manifest, err := readManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnx runtime: %v", ErrLoad, err)
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(manifest.FeatureNames))))
	if err != nil {
		return nil, fmt.Errorf("%w: create input tensor: %v", ErrLoad, err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(manifest.Classes))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("%w: create output tensor: %v", ErrLoad, err)
	}

	session, err := ort.NewAdvancedSession(
		opts.Path,
		[]string{manifest.InputName},
		[]string{manifest.OutputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("%w: create session: %v", ErrLoad, err)
	}

	return &onnxPipeline{
		manifest: manifest,
		session:  session,
		input:    input,
		output:   output,
	}, nil
}

func (o *onnxPipeline) FeatureNames() []string {
	return append([]string(nil), o.manifest.FeatureNames...)
}

func (o *onnxPipeline) Classes() []string {
	return append([]string(nil), o.manifest.Classes...)
}

func (o *onnxPipeline) PredictProba(row []float64) ([]float64, error) {
	if err := checkRow(row, len(o.manifest.FeatureNames)); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	data := o.input.GetData()
	for i, v := range row {
		data[i] = float32(v)
	}
	if err := o.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := o.output.GetData()
	proba := make([]float64, len(out))
	for i, v := range out {
		proba[i] = float64(v)
	}
	return proba, nil
}

func (o *onnxPipeline) Predict(row []float64) (string, error) {
	proba, err := o.PredictProba(row)
	if err != nil {
		return "", err
	}
	return o.manifest.Classes[argmax(proba)], nil
}

// Close releases the session and its tensors.
func (o *onnxPipeline) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	var firstErr error
	for _, destroy := range []func() error{o.session.Destroy, o.input.Destroy, o.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
