package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

func randn(shape tensor.Shape, seed uint64) *tensor.RawTensor {
	return tensor.Randn(shape, tensor.Float64, 1, rand.NewPCG(seed, seed+1))
}

func fromValues(t *testing.T, values []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat64s(values, shape, tensor.Float64)
	require.NoError(t, err)
	return raw
}

// dot returns Σ a[i]*b[i] for two float64 tensors of equal size.
func dot(a, b *tensor.RawTensor) float64 {
	return floats.Dot(a.AsFloat64(), b.AsFloat64())
}

// numericGrad returns the central-difference gradient of f at x.
func numericGrad(f func(x []float64) float64, x []float64) []float64 {
	return fd.Gradient(nil, f, x, &fd.Settings{Formula: fd.Central, Step: 1e-6})
}

func requireClose(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i], got[i], tol, "element %d", i)
	}
}

// backends returns a sequential and a parallel backend so every kernel is
// exercised with and without chunking.
func backends() map[string]*CPUBackend {
	return map[string]*CPUBackend{
		"sequential": NewWithConfig(parallel.Sequential()),
		"parallel":   NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}),
	}
}
