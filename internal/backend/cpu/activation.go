package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := newLike("relu", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		relu(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		relu(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}
	return result
}

func relu[T tensor.Float](dst, src []T) {
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
}

// ReLUBackward passes grad through where the forward input was positive and
// zeroes it elsewhere.
func (cpu *CPUBackend) ReLUBackward(grad, input *tensor.RawTensor) *tensor.RawTensor {
	if !grad.Shape().Equal(input.Shape()) {
		panic(fmt.Sprintf("ReLUBackward: gradient shape %v != input shape %v", grad.Shape(), input.Shape()))
	}
	requireSameDType("ReLUBackward", grad, input)
	result := newLike("ReLUBackward", grad.Shape(), grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		reluBackward(result.AsFloat32(), grad.AsFloat32(), input.AsFloat32())
	case tensor.Float64:
		reluBackward(result.AsFloat64(), grad.AsFloat64(), input.AsFloat64())
	default:
		panic(fmt.Sprintf("ReLUBackward: unsupported dtype %s", grad.DType()))
	}
	return result
}

func reluBackward[T tensor.Float](dst, grad, input []T) {
	for i, x := range input {
		if x > 0 {
			dst[i] = grad[i]
		}
	}
}
