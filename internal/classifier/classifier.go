// Package classifier runs the emotion model. Handle is the process-wide,
// load-once entry point; Engine is the model runtime behind it.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/preprocess"
)

var (
	// ErrNotReady indicates Classify was called before a model was loaded
	ErrNotReady = errors.New("classifier not ready")

	// ErrShapeMismatch indicates a tensor that does not fit the model
	ErrShapeMismatch = errors.New("tensor shape mismatch")

	// ErrEngine indicates a failure inside the inference runtime
	ErrEngine = errors.New("inference engine failure")
)

// Classifier scores a normalized face tensor, one raw score per label.
type Classifier interface {
	Classify(ctx context.Context, tensor *preprocess.Tensor) ([]float32, error)
	Ready() bool
}

// Engine is a loaded model. Run must be safe for concurrent use.
type Engine interface {
	Run(tensor *preprocess.Tensor) ([]float32, error)

	// InputShape is the declared input shape; -1 marks a dynamic dimension
	InputShape() []int64

	// OutputSize is the number of scores Run returns
	OutputSize() int

	Close() error
}

type loaded struct {
	engine Engine
}

// Handle holds the engine for the life of the process. The zero value is an
// unloaded handle.
type Handle struct {
	current atomic.Pointer[loaded]
}

var _ Classifier = (*Handle)(nil)

// NewHandle returns a handle already holding e
func NewHandle(e Engine) *Handle {
	h := &Handle{}
	h.Set(e)
	return h
}

// Set installs e, closing any engine it replaces.
func (h *Handle) Set(e Engine) {
	var next *loaded
	if e != nil {
		next = &loaded{engine: e}
	}

	if prev := h.current.Swap(next); prev != nil {
		_ = prev.engine.Close()
	}
}

// Ready reports whether a model is loaded
func (h *Handle) Ready() bool {
	return h.current.Load() != nil
}

// Classify validates tensor against the model and runs it.
func (h *Handle) Classify(ctx context.Context, tensor *preprocess.Tensor) ([]float32, error) {
	l := h.current.Load()
	if l == nil {
		return nil, ErrNotReady
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkShape(tensor, l.engine.InputShape()); err != nil {
		return nil, err
	}

	scores, err := l.engine.Run(tensor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	if len(scores) != l.engine.OutputSize() {
		return nil, fmt.Errorf("%w: model returned %d scores, want %d", ErrShapeMismatch, len(scores), l.engine.OutputSize())
	}

	return scores, nil
}

// Close unloads and closes the current engine
func (h *Handle) Close() error {
	prev := h.current.Swap(nil)
	if prev == nil {
		return nil
	}
	return prev.engine.Close()
}

func checkShape(tensor *preprocess.Tensor, want []int64) error {
	if tensor == nil {
		return fmt.Errorf("%w: nil tensor", ErrShapeMismatch)
	}

	if len(tensor.Shape) != len(want) {
		return fmt.Errorf("%w: got %v, model expects %v", ErrShapeMismatch, tensor.Shape, want)
	}

	for i, dim := range tensor.Shape {
		if dim <= 0 || (want[i] > 0 && dim != want[i]) {
			return fmt.Errorf("%w: got %v, model expects %v", ErrShapeMismatch, tensor.Shape, want)
		}
	}

	if int64(len(tensor.Data)) != tensor.Size() {
		return fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(tensor.Data), tensor.Shape)
	}

	return nil
}
