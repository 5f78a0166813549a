// Package cpu implements the numeric kernels of the classifier on the CPU.
//
// Dense products go through gonum BLAS; per-sample and per-channel loops are
// split across goroutines with internal/parallel. Kernels panic on programmer
// errors (wrong rank, mismatched channels) and leave user-facing validation
// to their callers.
package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// CPUBackend implements the convolutional primitives on the CPU.
type CPUBackend struct {
	parallel parallel.Config
}

// New creates a CPU backend that parallelizes across all available cores.
func New() *CPUBackend {
	return &CPUBackend{parallel: parallel.DefaultConfig()}
}

// NewWithConfig creates a CPU backend with an explicit parallelism setting.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Parallelism returns the backend's parallel execution settings.
func (cpu *CPUBackend) Parallelism() parallel.Config {
	return cpu.parallel
}

func newLike(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return out
}

func requireRank(op, name string, t *tensor.RawTensor, rank int) {
	if len(t.Shape()) != rank {
		panic(fmt.Sprintf("%s: %s must be %dD, got shape %v", op, name, rank, t.Shape()))
	}
}

func requireSameDType(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts[1:] {
		if t.DType() != ts[0].DType() {
			panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, ts[0].DType(), t.DType()))
		}
	}
}
