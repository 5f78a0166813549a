package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// MaxPool2DBackward computes the gradient w.r.t. the input of MaxPool2D.
//
// Each output gradient flows only to the input element that held the
// window's maximum in the forward pass, identified by maxIndices. All other
// positions receive zero. Overlapping windows that chose the same element
// accumulate.
//
// Example (2x2 pool, stride=2):
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
func (cpu *CPUBackend) MaxPool2DBackward(inputShape tensor.Shape, grad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	if len(maxIndices) != grad.NumElements() {
		panic(fmt.Sprintf("MaxPool2DBackward: %d indices for %d gradient elements", len(maxIndices), grad.NumElements()))
	}

	inputGrad := newLike("MaxPool2DBackward", inputShape, grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		scatterAdd(inputGrad.AsFloat32(), grad.AsFloat32(), maxIndices)
	case tensor.Float64:
		scatterAdd(inputGrad.AsFloat64(), grad.AsFloat64(), maxIndices)
	default:
		panic(fmt.Sprintf("MaxPool2DBackward: unsupported dtype %s", grad.DType()))
	}

	return inputGrad
}

func scatterAdd[T tensor.Float](dst, src []T, indices []int) {
	for i, idx := range indices {
		dst[idx] += src[i]
	}
}
