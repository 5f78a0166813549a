// Package nn implements the layer operators of the convolutional classifier.
//
// Every operator is a forward/backward pair:
//   - Forward takes the input and the layer's parameters and returns the
//     output plus a cache holding the intermediates the backward pass needs.
//   - Backward takes the upstream gradient and that cache and returns the
//     gradients w.r.t. the input and each parameter.
//
// Operators compute through a Backend, so the numeric kernels can be swapped
// or instrumented without touching the layer logic. Composite operators
// (ConvReLUPool, AffineBNReLU, ...) chain the primitive ones and bundle their
// caches.
package nn

import "github.com/born-ml/convnet/internal/tensor"

// Backend is the set of numeric kernels the layer operators are built on.
// It is satisfied by *cpu.CPUBackend.
type Backend interface {
	Name() string

	Conv2D(input, kernel, bias *tensor.RawTensor, stride, padding int) *tensor.RawTensor
	Conv2DInputBackward(inputShape tensor.Shape, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor
	Conv2DKernelBackward(input *tensor.RawTensor, kernelShape tensor.Shape, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor
	Conv2DBiasBackward(grad *tensor.RawTensor) *tensor.RawTensor

	MaxPool2D(input *tensor.RawTensor, poolH, poolW, stride int) (*tensor.RawTensor, []int)
	MaxPool2DBackward(inputShape tensor.Shape, grad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor

	MatMul(a, b *tensor.RawTensor, transA, transB bool) *tensor.RawTensor
	AddRowVector(m, v *tensor.RawTensor) *tensor.RawTensor
	SumRows(m *tensor.RawTensor) *tensor.RawTensor

	ReLU(x *tensor.RawTensor) *tensor.RawTensor
	ReLUBackward(grad, input *tensor.RawTensor) *tensor.RawTensor

	BatchNormStats(x *tensor.RawTensor) (mean, variance *tensor.RawTensor)
	BatchNormApply(x, mean, variance, gamma, beta *tensor.RawTensor, eps float64) (out, xhat *tensor.RawTensor)
	BatchNormBackward(grad, xhat, gamma, variance *tensor.RawTensor, eps float64, training bool) (dx, dgamma, dbeta *tensor.RawTensor)
	ToChannelRows(x *tensor.RawTensor) *tensor.RawTensor
	FromChannelRows(rows *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor

	SoftmaxCrossEntropy(scores *tensor.RawTensor, labels []int) (float64, *tensor.RawTensor)
}

// Mode selects how normalization layers treat their statistics.
type Mode int

const (
	// Train normalizes with batch statistics and updates the running averages.
	Train Mode = iota
	// Eval normalizes with the running averages and leaves them unchanged.
	Eval
)

// String returns "train" or "eval".
func (m Mode) String() string {
	switch m {
	case Train:
		return "train"
	case Eval:
		return "eval"
	default:
		return "unknown"
	}
}
