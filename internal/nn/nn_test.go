package nn

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/tensor"
)

func randn(shape tensor.Shape, seed uint64) *tensor.RawTensor {
	return tensor.Randn(shape, tensor.Float64, 1, rand.NewPCG(seed, 99))
}

func with(t *testing.T, values []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromFloat64s(values, shape, tensor.Float64)
	require.NoError(t, err)
	return raw
}

// checkGrad compares analytic against the central-difference gradient of
// Σ f(x) ⊙ g.
func checkGrad(t *testing.T, name string, x, analytic, g *tensor.RawTensor, f func(x *tensor.RawTensor) *tensor.RawTensor) {
	t.Helper()
	num := fd.Gradient(nil, func(v []float64) float64 {
		return floats.Dot(f(with(t, v, x.Shape())).AsFloat64(), g.AsFloat64())
	}, x.Float64s(), &fd.Settings{Formula: fd.Central, Step: 1e-6})

	require.Equal(t, x.Shape(), analytic.Shape(), name)
	got := analytic.AsFloat64()
	for i := range num {
		require.InDelta(t, num[i], got[i], 1e-5, "%s[%d]", name, i)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "train", Train.String())
	assert.Equal(t, "eval", Eval.String())
}

func TestAffineFlattens(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{2, 3, 2, 2}, 1)
	w := randn(tensor.Shape{12, 5}, 2)
	b := randn(tensor.Shape{5}, 3)

	out, cache := AffineForward(be, x, w, b)
	require.Equal(t, tensor.Shape{2, 5}, out.Shape())

	g := randn(out.Shape(), 4)
	dx, dw, db := AffineBackward(be, g, cache)

	assert.Equal(t, x.Shape(), dx.Shape())
	checkGrad(t, "x", x, dx, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := AffineForward(be, v, w, b)
		return o
	})
	checkGrad(t, "w", w, dw, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := AffineForward(be, x, v, b)
		return o
	})
	checkGrad(t, "b", b, db, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := AffineForward(be, x, w, v)
		return o
	})
}

func TestBatchNormStateUpdate(t *testing.T) {
	be := cpu.New()
	state := NewBatchNormState(2, tensor.Float64, 0.9, 1e-5)
	x := with(t, []float64{1, 2, 3, 6}, tensor.Shape{2, 2})
	gamma := tensor.Ones(tensor.Shape{2}, tensor.Float64)
	beta := tensor.Zeros(tensor.Shape{2}, tensor.Float64)

	BatchNormForward(be, x, gamma, beta, state, Train)

	// Batch mean (2, 4), batch variance (1, 4).
	assert.InDeltaSlice(t, []float64{0.2, 0.4}, state.RunningMean.AsFloat64(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.9 + 0.1, 0.9 + 0.4}, state.RunningVar.AsFloat64(), 1e-12)

	before := state.Clone()
	BatchNormForward(be, x, gamma, beta, state, Eval)

	assert.Equal(t, before.RunningMean.AsFloat64(), state.RunningMean.AsFloat64())
	assert.Equal(t, before.RunningVar.AsFloat64(), state.RunningVar.AsFloat64())
}

func TestBatchNormForwardPanicsWithoutState(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{2, 2}, 5)
	assert.Panics(t, func() { BatchNormForward(be, x, x, x, nil, Train) })
}

func TestSpatialBatchNormNormalizesChannels(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{3, 2, 4, 4}, 6)
	state := NewBatchNormState(2, tensor.Float64, DefaultMomentum, DefaultEps)
	gamma := with(t, []float64{1, 1}, tensor.Shape{2})
	beta := with(t, []float64{5, -5}, tensor.Shape{2})

	out, _ := SpatialBatchNormForward(be, x, gamma, beta, state, Train)

	mean, _ := be.BatchNormStats(be.ToChannelRows(out))
	assert.InDeltaSlice(t, []float64{5, -5}, mean.AsFloat64(), 1e-10)
}

func TestConvReLUPoolGradients(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{2, 3, 4, 4}, 7)
	w := randn(tensor.Shape{2, 3, 3, 3}, 8)
	b := randn(tensor.Shape{2}, 9)
	conv := ConvParam{Stride: 1, Padding: 1}
	pool := PoolParam{Height: 2, Width: 2, Stride: 2}

	out, cache := ConvReLUPoolForward(be, x, w, b, conv, pool)
	require.Equal(t, tensor.Shape{2, 2, 2, 2}, out.Shape())

	g := randn(out.Shape(), 10)
	dx, dw, db := ConvReLUPoolBackward(be, g, cache)

	checkGrad(t, "x", x, dx, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := ConvReLUPoolForward(be, v, w, b, conv, pool)
		return o
	})
	checkGrad(t, "w", w, dw, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := ConvReLUPoolForward(be, x, v, b, conv, pool)
		return o
	})
	checkGrad(t, "b", b, db, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := ConvReLUPoolForward(be, x, w, v, conv, pool)
		return o
	})
}

func TestConvBNReLUPoolGradients(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{3, 2, 4, 4}, 11)
	w := randn(tensor.Shape{2, 2, 3, 3}, 12)
	b := randn(tensor.Shape{2}, 13)
	gamma := randn(tensor.Shape{2}, 14)
	beta := randn(tensor.Shape{2}, 15)
	conv := ConvParam{Stride: 1, Padding: 1}
	pool := PoolParam{Height: 2, Width: 2, Stride: 2}
	state := NewBatchNormState(2, tensor.Float64, DefaultMomentum, DefaultEps)

	forward := func(x, w, gamma, beta *tensor.RawTensor) *tensor.RawTensor {
		o, _ := ConvBNReLUPoolForward(be, x, w, b, gamma, beta, conv, pool, state.Clone(), Train)
		return o
	}

	out, cache := ConvBNReLUPoolForward(be, x, w, b, gamma, beta, conv, pool, state.Clone(), Train)
	g := randn(out.Shape(), 16)
	dx, dw, db, dgamma, dbeta := ConvBNReLUPoolBackward(be, g, cache)

	checkGrad(t, "x", x, dx, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(v, w, gamma, beta) })
	checkGrad(t, "w", w, dw, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(x, v, gamma, beta) })
	checkGrad(t, "gamma", gamma, dgamma, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(x, w, v, beta) })
	checkGrad(t, "beta", beta, dbeta, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(x, w, gamma, v) })

	// The bias cancels under batch normalization.
	for _, v := range db.AsFloat64() {
		assert.InDelta(t, 0, v, 1e-10)
	}
}

func TestAffineReLUGradients(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{4, 6}, 17)
	w := randn(tensor.Shape{6, 3}, 18)
	b := randn(tensor.Shape{3}, 19)

	out, cache := AffineReLUForward(be, x, w, b)
	g := randn(out.Shape(), 20)
	dx, dw, _ := AffineReLUBackward(be, g, cache)

	checkGrad(t, "x", x, dx, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := AffineReLUForward(be, v, w, b)
		return o
	})
	checkGrad(t, "w", w, dw, g, func(v *tensor.RawTensor) *tensor.RawTensor {
		o, _ := AffineReLUForward(be, x, v, b)
		return o
	})
}

func TestAffineBNReLUGradients(t *testing.T) {
	be := cpu.New()
	x := randn(tensor.Shape{5, 6}, 21)
	w := randn(tensor.Shape{6, 4}, 22)
	b := randn(tensor.Shape{4}, 23)
	gamma := randn(tensor.Shape{4}, 24)
	beta := randn(tensor.Shape{4}, 25)
	state := NewBatchNormState(4, tensor.Float64, DefaultMomentum, DefaultEps)

	for _, mode := range []Mode{Train, Eval} {
		t.Run(mode.String(), func(t *testing.T) {
			forward := func(x, w, gamma, beta *tensor.RawTensor) *tensor.RawTensor {
				o, _ := AffineBNReLUForward(be, x, w, b, gamma, beta, state.Clone(), mode)
				return o
			}

			out, cache := AffineBNReLUForward(be, x, w, b, gamma, beta, state.Clone(), mode)
			g := randn(out.Shape(), 26)
			dx, dw, _, dgamma, dbeta := AffineBNReLUBackward(be, g, cache)

			checkGrad(t, "x", x, dx, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(v, w, gamma, beta) })
			checkGrad(t, "w", w, dw, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(x, v, gamma, beta) })
			checkGrad(t, "gamma", gamma, dgamma, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(x, w, v, beta) })
			checkGrad(t, "beta", beta, dbeta, g, func(v *tensor.RawTensor) *tensor.RawTensor { return forward(x, w, gamma, v) })
		})
	}
}

func TestSoftmaxLoss(t *testing.T) {
	be := cpu.New()
	scores := tensor.Zeros(tensor.Shape{2, 4}, tensor.Float64)

	loss, dscores := SoftmaxLoss(be, scores, []int{1, 3})

	assert.InDelta(t, 1.3862943611198906, loss, 1e-12) // log(4)
	assert.Equal(t, scores.Shape(), dscores.Shape())
}
