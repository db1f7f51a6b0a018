package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultPath is where the pipeline artifact is looked up when nothing
// else is configured.
const DefaultPath = "models/gradient_boosting.json"

const (
	FormatAuto   = "auto"
	FormatNative = "native"
	FormatONNX   = "onnx"
)

// Options locates the artifact and selects how to read it.
type Options struct {
	Path string
	// Format is one of FormatAuto, FormatNative or FormatONNX.
	Format string
	// ManifestPath overrides the ONNX manifest location.
	ManifestPath string
	// SharedLibraryPath points at the ONNX Runtime shared library.
	SharedLibraryPath string
}

// Load reads the artifact described by opts.
func Load(opts Options) (Pipeline, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}

	format := opts.Format
	if format == "" || format == FormatAuto {
		format = detectFormat(opts.Path)
	}

	switch format {
	case FormatNative:
		payload, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoad, err)
		}
		return decodeNative(payload)
	case FormatONNX:
		p, err := loadONNX(opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown model format %q", ErrLoad, opts.Format)
	}
}

func detectFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".onnx") {
		return FormatONNX
	}
	return FormatNative
}

// LoaderFunc produces the pipeline a Handle caches.
type LoaderFunc func() (Pipeline, error)

// FileLoader returns a LoaderFunc reading the artifact described by opts.
func FileLoader(opts Options) LoaderFunc {
	return func() (Pipeline, error) { return Load(opts) }
}

// Handle owns the single loaded pipeline for the lifetime of the process.
// The first Get runs the loader; every later call returns the same
// pipeline or the same error. The pipeline is never mutated after load.
type Handle struct {
	load   LoaderFunc
	logger *zap.Logger

	once sync.Once
	caps Capabilities
	err  error
}

// NewHandle creates a handle that loads lazily with load.
func NewHandle(load LoaderFunc, logger *zap.Logger) *Handle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handle{load: load, logger: logger}
}

// Get returns the loaded pipeline, loading it on first use.
func (h *Handle) Get() (Pipeline, error) {
	h.once.Do(h.init)
	if h.err != nil {
		return nil, h.err
	}
	return h.caps.Point, nil
}

// Capabilities returns the capability view resolved at load time.
func (h *Handle) Capabilities() (Capabilities, error) {
	h.once.Do(h.init)
	return h.caps, h.err
}

// Probabilities returns the probability estimator, or nil when the
// pipeline cannot estimate probabilities or failed to load.
func (h *Handle) Probabilities() ProbabilisticPipeline {
	h.once.Do(h.init)
	return h.caps.Proba
}

func (h *Handle) init() {
	p, err := h.load()
	if err == nil && p == nil {
		err = fmt.Errorf("%w: loader returned no pipeline", ErrLoad)
	}
	if err == nil && len(p.FeatureNames()) == 0 {
		err = fmt.Errorf("%w: pipeline declares no feature names", ErrSchema)
	}
	if err != nil {
		h.err = err
		h.logger.Error("model load failed", zap.Error(err))
		return
	}

	h.caps = Inspect(p)
	h.logger.Info("model loaded",
		zap.Int("features", len(p.FeatureNames())),
		zap.Bool("probabilities", h.caps.Proba != nil),
	)
}

// Close releases resources held by the pipeline, if any.
func (h *Handle) Close() error {
	if c, ok := h.caps.Point.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
