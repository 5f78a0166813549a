package convnet

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/convnet/internal/backend/cpu"
)

// Fixed topology hyperparameters.
const (
	ConvStride = 1
	PoolHeight = 2
	PoolWidth  = 2
	PoolStride = 2
)

// DerivePooledSize returns the spatial size after the convolution and
// pooling stages along one axis, as used to size W2:
//
//	1 + (size + 2*pad - filterSize) / convStride / pool
//
// with pad = (filterSize-1)/2 and truncating integer division applied left
// to right.
func DerivePooledSize(size, filterSize, convStride, pool int) int {
	pad := (filterSize - 1) / 2
	return 1 + (size+2*pad-filterSize)/convStride/pool
}

// DeriveFeatures returns the flattened length of the stage-1 output:
// numFilters * pooledHeight * pooledWidth.
func DeriveFeatures(numFilters, height, width, filterSize int) int {
	h := DerivePooledSize(height, filterSize, ConvStride, PoolHeight)
	w := DerivePooledSize(width, filterSize, ConvStride, PoolWidth)
	return numFilters * h * w
}

// Geometry is the spatial layout of stage 1 for a configuration.
type Geometry struct {
	Padding int

	// ConvHeight and ConvWidth are the convolution output size.
	ConvHeight, ConvWidth int

	// PoolHeight and PoolWidth are the pooling output size produced by the
	// kernels.
	PoolHeight, PoolWidth int

	// Features is the derived flattened length that sizes W2.
	Features int
}

// NewGeometry derives the stage-1 geometry of cfg and checks it against
// the output sizes of the convolution and pooling kernels. The two
// disagree when the convolution output has an odd height or width; such
// configurations are rejected with ErrConfig.
func NewGeometry(cfg Config) (Geometry, error) {
	pad := (cfg.FilterSize - 1) / 2
	g := Geometry{
		Padding:    pad,
		ConvHeight: cpu.ConvOutputSize(cfg.Input.Height, cfg.FilterSize, ConvStride, pad),
		ConvWidth:  cpu.ConvOutputSize(cfg.Input.Width, cfg.FilterSize, ConvStride, pad),
	}
	if g.ConvHeight < PoolHeight || g.ConvWidth < PoolWidth {
		return Geometry{}, errors.Wrapf(ErrConfig,
			"convolution output %dx%d is smaller than the %dx%d pooling window",
			g.ConvHeight, g.ConvWidth, PoolHeight, PoolWidth)
	}
	g.PoolHeight = cpu.PoolOutputSize(g.ConvHeight, PoolHeight, PoolStride)
	g.PoolWidth = cpu.PoolOutputSize(g.ConvWidth, PoolWidth, PoolStride)

	dh := DerivePooledSize(cfg.Input.Height, cfg.FilterSize, ConvStride, PoolHeight)
	dw := DerivePooledSize(cfg.Input.Width, cfg.FilterSize, ConvStride, PoolWidth)
	if dh != g.PoolHeight || dw != g.PoolWidth {
		return Geometry{}, errors.Wrapf(ErrConfig,
			"derived pooled size %dx%d disagrees with pooling output %dx%d for input %dx%d (convolution output must be even)",
			dh, dw, g.PoolHeight, g.PoolWidth, cfg.Input.Height, cfg.Input.Width)
	}
	g.Features = cfg.NumFilters * dh * dw
	return g, nil
}

// String formats the geometry like "conv 32x32 -> pool 16x16 -> 8192 features".
func (g Geometry) String() string {
	return fmt.Sprintf("conv %dx%d -> pool %dx%d -> %d features",
		g.ConvHeight, g.ConvWidth, g.PoolHeight, g.PoolWidth, g.Features)
}
