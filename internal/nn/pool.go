package nn

import "github.com/born-ml/convnet/internal/tensor"

// PoolParam holds the max-pooling window and stride.
type PoolParam struct {
	Height int
	Width  int
	Stride int
}

// PoolCache records the winning input positions of a pooling pass.
type PoolCache struct {
	inputShape tensor.Shape
	indices    []int
}

// MaxPoolForward applies max pooling to x [N, C, H, W].
func MaxPoolForward(be Backend, x *tensor.RawTensor, param PoolParam) (*tensor.RawTensor, *PoolCache) {
	out, indices := be.MaxPool2D(x, param.Height, param.Width, param.Stride)
	return out, &PoolCache{inputShape: x.Shape(), indices: indices}
}

// MaxPoolBackward routes dout back to the positions that won each window.
func MaxPoolBackward(be Backend, dout *tensor.RawTensor, cache *PoolCache) *tensor.RawTensor {
	return be.MaxPool2DBackward(cache.inputShape, dout, cache.indices)
}
