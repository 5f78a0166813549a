package convnet

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// smallConfig is a float64 network small enough for finite differences.
func smallConfig(batchNorm bool) Config {
	cfg := DefaultConfig()
	cfg.Input = InputShape{Channels: 3, Height: 4, Width: 4}
	cfg.NumFilters = 2
	cfg.FilterSize = 3
	cfg.HiddenDim = 5
	cfg.NumClasses = 3
	cfg.WeightScale = 0.5
	cfg.DType = tensor.Float64
	cfg.UseBatchNorm = batchNorm
	cfg.Seed = 1
	return cfg
}

func newModel(t *testing.T, cfg Config, opts ...Option) *Model {
	t.Helper()
	m, err := New(cfg, opts...)
	require.NoError(t, err)
	return m
}

func batch(cfg Config, n int, seed uint64) (*tensor.RawTensor, []int) {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	x := tensor.Randn(tensor.Shape{n, cfg.Input.Channels, cfg.Input.Height, cfg.Input.Width}, cfg.DType, 1, src)
	r := rand.New(src)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = r.IntN(cfg.NumClasses)
	}
	return x, labels
}

// recorder forwards to a real backend and records every kernel call.
type recorder struct {
	nn.Backend
	calls []string
}

func (r *recorder) rec(name string) { r.calls = append(r.calls, name) }

func (r *recorder) Conv2D(input, kernel, bias *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	r.rec("Conv2D")
	return r.Backend.Conv2D(input, kernel, bias, stride, padding)
}

func (r *recorder) Conv2DInputBackward(inputShape tensor.Shape, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	r.rec("Conv2DInputBackward")
	return r.Backend.Conv2DInputBackward(inputShape, kernel, grad, stride, padding)
}

func (r *recorder) Conv2DKernelBackward(input *tensor.RawTensor, kernelShape tensor.Shape, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	r.rec("Conv2DKernelBackward")
	return r.Backend.Conv2DKernelBackward(input, kernelShape, grad, stride, padding)
}

func (r *recorder) Conv2DBiasBackward(grad *tensor.RawTensor) *tensor.RawTensor {
	r.rec("Conv2DBiasBackward")
	return r.Backend.Conv2DBiasBackward(grad)
}

func (r *recorder) MaxPool2D(input *tensor.RawTensor, poolH, poolW, stride int) (*tensor.RawTensor, []int) {
	r.rec("MaxPool2D")
	return r.Backend.MaxPool2D(input, poolH, poolW, stride)
}

func (r *recorder) MaxPool2DBackward(inputShape tensor.Shape, grad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	r.rec("MaxPool2DBackward")
	return r.Backend.MaxPool2DBackward(inputShape, grad, maxIndices)
}

func (r *recorder) MatMul(a, b *tensor.RawTensor, transA, transB bool) *tensor.RawTensor {
	r.rec("MatMul")
	return r.Backend.MatMul(a, b, transA, transB)
}

func (r *recorder) AddRowVector(m, v *tensor.RawTensor) *tensor.RawTensor {
	r.rec("AddRowVector")
	return r.Backend.AddRowVector(m, v)
}

func (r *recorder) SumRows(m *tensor.RawTensor) *tensor.RawTensor {
	r.rec("SumRows")
	return r.Backend.SumRows(m)
}

func (r *recorder) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	r.rec("ReLU")
	return r.Backend.ReLU(x)
}

func (r *recorder) ReLUBackward(grad, input *tensor.RawTensor) *tensor.RawTensor {
	r.rec("ReLUBackward")
	return r.Backend.ReLUBackward(grad, input)
}

func (r *recorder) BatchNormStats(x *tensor.RawTensor) (mean, variance *tensor.RawTensor) {
	r.rec("BatchNormStats")
	return r.Backend.BatchNormStats(x)
}

func (r *recorder) BatchNormApply(x, mean, variance, gamma, beta *tensor.RawTensor, eps float64) (out, xhat *tensor.RawTensor) {
	r.rec("BatchNormApply")
	return r.Backend.BatchNormApply(x, mean, variance, gamma, beta, eps)
}

func (r *recorder) BatchNormBackward(grad, xhat, gamma, variance *tensor.RawTensor, eps float64, training bool) (dx, dgamma, dbeta *tensor.RawTensor) {
	r.rec("BatchNormBackward")
	return r.Backend.BatchNormBackward(grad, xhat, gamma, variance, eps, training)
}

func (r *recorder) ToChannelRows(x *tensor.RawTensor) *tensor.RawTensor {
	r.rec("ToChannelRows")
	return r.Backend.ToChannelRows(x)
}

func (r *recorder) FromChannelRows(rows *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	r.rec("FromChannelRows")
	return r.Backend.FromChannelRows(rows, shape)
}

func (r *recorder) SoftmaxCrossEntropy(scores *tensor.RawTensor, labels []int) (float64, *tensor.RawTensor) {
	r.rec("SoftmaxCrossEntropy")
	return r.Backend.SoftmaxCrossEntropy(scores, labels)
}
