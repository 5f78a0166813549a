package nn

import "github.com/born-ml/convnet/internal/tensor"

// AffineCache keeps the flattened input and the weights of an affine layer.
type AffineCache struct {
	inputShape tensor.Shape
	x2d, w     *tensor.RawTensor
}

// AffineForward computes x·w + b.
//
// x may have any rank; every dimension after the first is flattened, so an
// input of shape (N, d1, ..., dk) is treated as (N, D) with D = d1*...*dk.
// w has shape (D, M) and b has shape (M,). The output has shape (N, M).
func AffineForward(be Backend, x, w, b *tensor.RawTensor) (*tensor.RawTensor, *AffineCache) {
	x2d := x.MustReshape(x.Shape().Flatten2D())
	out := be.AddRowVector(be.MatMul(x2d, w, false, false), b)
	return out, &AffineCache{inputShape: x.Shape(), x2d: x2d, w: w}
}

// AffineBackward returns dx in the original input shape together with dw
// and db.
func AffineBackward(be Backend, dout *tensor.RawTensor, cache *AffineCache) (dx, dw, db *tensor.RawTensor) {
	dx = be.MatMul(dout, cache.w, false, true).MustReshape(cache.inputShape)
	dw = be.MatMul(cache.x2d, dout, true, false)
	db = be.SumRows(dout)
	return dx, dw, db
}
