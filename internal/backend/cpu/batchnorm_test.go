package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/convnet/internal/tensor"
)

func TestBatchNormStats(t *testing.T) {
	backend := New()
	x := fromValues(t, []float64{
		1, 10,
		3, 10,
		5, 40,
	}, tensor.Shape{3, 2})

	mean, variance := backend.BatchNormStats(x)

	assert.InDeltaSlice(t, []float64{3, 20}, mean.AsFloat64(), 1e-12)
	// Biased variance: divides by N.
	assert.InDeltaSlice(t, []float64{8.0 / 3, 200}, variance.AsFloat64(), 1e-12)
}

func TestBatchNormApply(t *testing.T) {
	backend := New()
	x := randn(tensor.Shape{16, 3}, 1)
	gamma := fromValues(t, []float64{1, 2, 0.5}, tensor.Shape{3})
	beta := fromValues(t, []float64{0, -1, 3}, tensor.Shape{3})

	mean, variance := backend.BatchNormStats(x)
	out, xhat := backend.BatchNormApply(x, mean, variance, gamma, beta, 1e-5)

	// xhat is standardized per column; out carries gamma and beta.
	hm, hv := backend.BatchNormStats(xhat)
	om, _ := backend.BatchNormStats(out)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 0, hm.At(j), 1e-10)
		assert.InDelta(t, 1, hv.At(j), 1e-3)
		assert.InDelta(t, beta.At(j), om.At(j), 1e-10)
	}
}

func TestBatchNormBackward_Training(t *testing.T) {
	backend := New()
	x := randn(tensor.Shape{5, 4}, 2)
	gamma := randn(tensor.Shape{4}, 3)
	beta := randn(tensor.Shape{4}, 4)
	g := randn(tensor.Shape{5, 4}, 5)
	const eps = 1e-5

	forward := func(x, gamma, beta *tensor.RawTensor) *tensor.RawTensor {
		mean, variance := backend.BatchNormStats(x)
		out, _ := backend.BatchNormApply(x, mean, variance, gamma, beta, eps)
		return out
	}

	mean, variance := backend.BatchNormStats(x)
	_, xhat := backend.BatchNormApply(x, mean, variance, gamma, beta, eps)
	dx, dgamma, dbeta := backend.BatchNormBackward(g, xhat, gamma, variance, eps, true)

	numX := numericGrad(func(v []float64) float64 {
		return dot(forward(fromValues(t, v, x.Shape()), gamma, beta), g)
	}, x.Float64s())
	numGamma := numericGrad(func(v []float64) float64 {
		return dot(forward(x, fromValues(t, v, gamma.Shape()), beta), g)
	}, gamma.Float64s())
	numBeta := numericGrad(func(v []float64) float64 {
		return dot(forward(x, gamma, fromValues(t, v, beta.Shape())), g)
	}, beta.Float64s())

	requireClose(t, numX, dx.AsFloat64(), 1e-5)
	requireClose(t, numGamma, dgamma.AsFloat64(), 1e-6)
	requireClose(t, numBeta, dbeta.AsFloat64(), 1e-6)
}

func TestBatchNormBackward_Eval(t *testing.T) {
	backend := New()
	x := randn(tensor.Shape{3, 2}, 6)
	mean := fromValues(t, []float64{0.5, -0.5}, tensor.Shape{2})
	variance := fromValues(t, []float64{4, 0.25}, tensor.Shape{2})
	gamma := fromValues(t, []float64{2, 3}, tensor.Shape{2})
	beta := tensor.Zeros(tensor.Shape{2}, tensor.Float64)
	g := tensor.Ones(tensor.Shape{3, 2}, tensor.Float64)

	_, xhat := backend.BatchNormApply(x, mean, variance, gamma, beta, 0)
	dx, _, dbeta := backend.BatchNormBackward(g, xhat, gamma, variance, 0, false)

	// With fixed statistics the layer is affine: dx = gamma / sqrt(var).
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 2/math.Sqrt(4), dx.At(i, 0), 1e-12)
		assert.InDelta(t, 3/math.Sqrt(0.25), dx.At(i, 1), 1e-12)
	}
	assert.InDeltaSlice(t, []float64{3, 3}, dbeta.AsFloat64(), 1e-12)
}

func TestChannelRowsRoundTrip(t *testing.T) {
	backend := New()
	x := randn(tensor.Shape{2, 3, 2, 2}, 7)

	rows := backend.ToChannelRows(x)
	assert.Equal(t, tensor.Shape{8, 3}, rows.Shape())
	// Row (n=1, h=0, w=1) column c=2 is x[1, 2, 0, 1].
	assert.Equal(t, x.At(1, 2, 0, 1), rows.At(1*4+0*2+1, 2))

	back := backend.FromChannelRows(rows, x.Shape())
	assert.Equal(t, x.AsFloat64(), back.AsFloat64())
}
