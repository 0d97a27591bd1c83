package classifier

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/preprocess"
)

var (
	envMu sync.Mutex

	// ErrModelIO indicates a model whose inputs or outputs do not fit
	ErrModelIO = errors.New("unexpected model inputs or outputs")
)

// ONNXConfig configures the ONNX Runtime engine
type ONNXConfig struct {
	ModelPath string

	// LibraryPath overrides the onnxruntime shared library location
	LibraryPath string

	// IntraOpThreads bounds per-run parallelism; 0 keeps the runtime default
	IntraOpThreads int

	InputSize  int
	Channels   int
	NumClasses int
}

// InitializeEnvironment sets up ONNX Runtime once per process.
func InitializeEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	return nil
}

// DestroyEnvironment tears ONNX Runtime down. Sessions must be closed first.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// ONNXEngine runs a single-input classifier with ONNX Runtime. Every Run
// allocates its own tensors, so concurrent calls share nothing but the
// session.
type ONNXEngine struct {
	session    *ort.DynamicAdvancedSession
	inputShape []int64
	outputSize int
}

var _ Engine = (*ONNXEngine)(nil)

// LoadONNX opens the model, checking its declared inputs and outputs
// against cfg before creating a session.
func LoadONNX(cfg ONNXConfig) (*ONNXEngine, error) {
	if err := InitializeEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model info %s: %w", cfg.ModelPath, err)
	}

	inputShape, err := validateIO(inputs, outputs, cfg)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.ModelPath, err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", cfg.ModelPath, err)
	}

	return &ONNXEngine{
		session:    session,
		inputShape: inputShape,
		outputSize: cfg.NumClasses,
	}, nil
}

// validateIO returns the accepted input shape: [-1 or 1, C, S, S].
func validateIO(inputs, outputs []ort.InputOutputInfo, cfg ONNXConfig) ([]int64, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("%w: %d inputs, want 1", ErrModelIO, len(inputs))
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("%w: no outputs", ErrModelIO)
	}

	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return nil, fmt.Errorf("%w: input %q has type %v, want float32", ErrModelIO, in.Name, in.DataType)
	}

	dims := in.Dimensions
	if len(dims) != 4 {
		return nil, fmt.Errorf("%w: input %q has shape %v, want 4 dimensions", ErrModelIO, in.Name, dims)
	}

	want := []int64{1, int64(cfg.Channels), int64(cfg.InputSize), int64(cfg.InputSize)}
	shape := make([]int64, 4)
	for i, dim := range dims {
		switch {
		case dim <= 0 && i == 0:
			shape[i] = -1
		case dim <= 0:
			shape[i] = want[i]
		case dim != want[i]:
			return nil, fmt.Errorf("%w: input %q has shape %v, want %v", ErrModelIO, in.Name, dims, want)
		default:
			shape[i] = dim
		}
	}

	out := outputs[0]
	if len(out.Dimensions) == 0 {
		return nil, fmt.Errorf("%w: output %q has no dimensions", ErrModelIO, out.Name)
	}
	last := out.Dimensions[len(out.Dimensions)-1]
	if last > 0 && last != int64(cfg.NumClasses) {
		return nil, fmt.Errorf("%w: output %q has %d classes, want %d", ErrModelIO, out.Name, last, cfg.NumClasses)
	}

	return shape, nil
}

// Run implements Engine
func (e *ONNXEngine) Run(tensor *preprocess.Tensor) ([]float32, error) {
	input, err := ort.NewTensor(ort.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}

	scores := make([]float32, len(out.GetData()))
	copy(scores, out.GetData())

	return scores, nil
}

// InputShape implements Engine
func (e *ONNXEngine) InputShape() []int64 { return e.inputShape }

// OutputSize implements Engine
func (e *ONNXEngine) OutputSize() int { return e.outputSize }

// Close implements Engine
func (e *ONNXEngine) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}
