package nn

import "github.com/born-ml/convnet/internal/tensor"

// ConvParam holds the convolution hyperparameters.
type ConvParam struct {
	Stride  int
	Padding int
}

// ConvCache is what ConvBackward needs from ConvForward.
type ConvCache struct {
	x, w  *tensor.RawTensor
	param ConvParam
}

// ConvForward convolves x [N, C, H, W] with w [F, C, HH, WW] and adds the
// per-filter bias b [F].
func ConvForward(be Backend, x, w, b *tensor.RawTensor, param ConvParam) (*tensor.RawTensor, *ConvCache) {
	out := be.Conv2D(x, w, b, param.Stride, param.Padding)
	return out, &ConvCache{x: x, w: w, param: param}
}

// ConvBackward returns the gradients w.r.t. x, w and b.
func ConvBackward(be Backend, dout *tensor.RawTensor, cache *ConvCache) (dx, dw, db *tensor.RawTensor) {
	p := cache.param
	dx = be.Conv2DInputBackward(cache.x.Shape(), cache.w, dout, p.Stride, p.Padding)
	dw = be.Conv2DKernelBackward(cache.x, cache.w.Shape(), dout, p.Stride, p.Padding)
	db = be.Conv2DBiasBackward(dout)
	return dx, dw, db
}
