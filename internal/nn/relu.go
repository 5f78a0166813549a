package nn

import "github.com/born-ml/convnet/internal/tensor"

// ReLUCache keeps the input of a ReLU.
type ReLUCache struct {
	x *tensor.RawTensor
}

// ReLUForward applies max(0, x).
func ReLUForward(be Backend, x *tensor.RawTensor) (*tensor.RawTensor, *ReLUCache) {
	return be.ReLU(x), &ReLUCache{x: x}
}

// ReLUBackward masks dout with x > 0.
func ReLUBackward(be Backend, dout *tensor.RawTensor, cache *ReLUCache) *tensor.RawTensor {
	return be.ReLUBackward(dout, cache.x)
}
