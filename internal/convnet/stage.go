package convnet

import (
	"github.com/pkg/errors"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Variant identifies the pipeline a model runs.
type Variant int

const (
	// Plain runs conv -> ReLU -> pool -> affine -> ReLU -> affine.
	Plain Variant = iota
	// Normalized inserts batch normalization after the convolution and
	// after the first affine layer.
	Normalized
)

// String returns "plain" or "normalized".
func (v Variant) String() string {
	if v == Normalized {
		return "normalized"
	}
	return "plain"
}

// spatialStage maps the input batch to pooled feature maps (stage 1).
type spatialStage interface {
	forward(be nn.Backend, x *tensor.RawTensor, p *Params, mode nn.Mode) (*tensor.RawTensor, any)
	backward(be nn.Backend, dout *tensor.RawTensor, cache any, grads *Params) error
	describe() string
}

// hiddenStage maps flattened features to hidden activations (stage 2).
type hiddenStage interface {
	forward(be nn.Backend, x *tensor.RawTensor, p *Params, mode nn.Mode) (*tensor.RawTensor, any)
	backward(be nn.Backend, dout *tensor.RawTensor, cache any, grads *Params) (*tensor.RawTensor, error)
	describe() string
}

// newStages picks the stage implementations for cfg once, at construction.
func newStages(cfg Config, geom Geometry, state *NormState) (spatialStage, hiddenStage) {
	conv := nn.ConvParam{Stride: ConvStride, Padding: geom.Padding}
	pool := nn.PoolParam{Height: PoolHeight, Width: PoolWidth, Stride: PoolStride}
	if cfg.UseBatchNorm {
		return &normSpatial{conv: conv, pool: pool, state: state.Spatial}, &normHidden{state: state.Hidden}
	}
	return &plainSpatial{conv: conv, pool: pool}, &plainHidden{}
}

func cacheError(stage string, cache any) error {
	return errors.Wrapf(ErrSequence, "%s stage cannot consume a %T cache", stage, cache)
}

type plainSpatial struct {
	conv nn.ConvParam
	pool nn.PoolParam
}

func (s *plainSpatial) forward(be nn.Backend, x *tensor.RawTensor, p *Params, _ nn.Mode) (*tensor.RawTensor, any) {
	return nn.ConvReLUPoolForward(be, x, p.W1, p.B1, s.conv, s.pool)
}

func (s *plainSpatial) backward(be nn.Backend, dout *tensor.RawTensor, cache any, grads *Params) error {
	c, ok := cache.(*nn.ConvReLUPoolCache)
	if !ok {
		return cacheError("conv-relu-pool", cache)
	}
	// The input gradient is computed but not needed.
	_, grads.W1, grads.B1 = nn.ConvReLUPoolBackward(be, dout, c)
	return nil
}

func (s *plainSpatial) describe() string { return "conv -> relu -> maxpool" }

type normSpatial struct {
	conv  nn.ConvParam
	pool  nn.PoolParam
	state *nn.BatchNormState
}

func (s *normSpatial) forward(be nn.Backend, x *tensor.RawTensor, p *Params, mode nn.Mode) (*tensor.RawTensor, any) {
	return nn.ConvBNReLUPoolForward(be, x, p.W1, p.B1, p.Gamma1, p.Beta1, s.conv, s.pool, s.state, mode)
}

func (s *normSpatial) backward(be nn.Backend, dout *tensor.RawTensor, cache any, grads *Params) error {
	c, ok := cache.(*nn.ConvBNReLUPoolCache)
	if !ok {
		return cacheError("conv-bn-relu-pool", cache)
	}
	_, grads.W1, grads.B1, grads.Gamma1, grads.Beta1 = nn.ConvBNReLUPoolBackward(be, dout, c)
	return nil
}

func (s *normSpatial) describe() string { return "conv -> spatial batchnorm -> relu -> maxpool" }

type plainHidden struct{}

func (plainHidden) forward(be nn.Backend, x *tensor.RawTensor, p *Params, _ nn.Mode) (*tensor.RawTensor, any) {
	return nn.AffineReLUForward(be, x, p.W2, p.B2)
}

func (plainHidden) backward(be nn.Backend, dout *tensor.RawTensor, cache any, grads *Params) (*tensor.RawTensor, error) {
	c, ok := cache.(*nn.AffineReLUCache)
	if !ok {
		return nil, cacheError("affine-relu", cache)
	}
	var dx *tensor.RawTensor
	dx, grads.W2, grads.B2 = nn.AffineReLUBackward(be, dout, c)
	return dx, nil
}

func (plainHidden) describe() string { return "affine -> relu" }

type normHidden struct {
	state *nn.BatchNormState
}

func (s *normHidden) forward(be nn.Backend, x *tensor.RawTensor, p *Params, mode nn.Mode) (*tensor.RawTensor, any) {
	return nn.AffineBNReLUForward(be, x, p.W2, p.B2, p.Gamma2, p.Beta2, s.state, mode)
}

func (s *normHidden) backward(be nn.Backend, dout *tensor.RawTensor, cache any, grads *Params) (*tensor.RawTensor, error) {
	c, ok := cache.(*nn.AffineBNReLUCache)
	if !ok {
		return nil, cacheError("affine-bn-relu", cache)
	}
	var dx *tensor.RawTensor
	dx, grads.W2, grads.B2, grads.Gamma2, grads.Beta2 = nn.AffineBNReLUBackward(be, dout, c)
	return dx, nil
}

func (s *normHidden) describe() string { return "affine -> batchnorm -> relu" }
