package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// ToChannelRows rearranges x [N, C, H, W] into a [N*H*W, C] matrix so that
// per-channel operations can reuse the per-feature kernels.
func (cpu *CPUBackend) ToChannelRows(x *tensor.RawTensor) *tensor.RawTensor {
	requireRank("ToChannelRows", "x", x, 4)
	s := x.Shape()
	n, c, spatial := s[0], s[1], s[2]*s[3]
	result := newLike("ToChannelRows", tensor.Shape{n * spatial, c}, x.DType())

	switch x.DType() {
	case tensor.Float32:
		nchwToRows(result.AsFloat32(), x.AsFloat32(), n, c, spatial)
	case tensor.Float64:
		nchwToRows(result.AsFloat64(), x.AsFloat64(), n, c, spatial)
	default:
		panic(fmt.Sprintf("ToChannelRows: unsupported dtype %s", x.DType()))
	}
	return result
}

// FromChannelRows is the inverse of ToChannelRows for the given NCHW shape.
func (cpu *CPUBackend) FromChannelRows(rows *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	requireRank("FromChannelRows", "rows", rows, 2)
	if len(shape) != 4 || rows.NumElements() != shape.NumElements() || rows.Shape()[1] != shape[1] {
		panic(fmt.Sprintf("FromChannelRows: cannot map %v onto %v", rows.Shape(), shape))
	}
	n, c, spatial := shape[0], shape[1], shape[2]*shape[3]
	result := newLike("FromChannelRows", shape, rows.DType())

	switch rows.DType() {
	case tensor.Float32:
		rowsToNCHW(result.AsFloat32(), rows.AsFloat32(), n, c, spatial)
	case tensor.Float64:
		rowsToNCHW(result.AsFloat64(), rows.AsFloat64(), n, c, spatial)
	default:
		panic(fmt.Sprintf("FromChannelRows: unsupported dtype %s", rows.DType()))
	}
	return result
}

func nchwToRows[T tensor.Float](dst, src []T, n, c, spatial int) {
	for i := 0; i < n; i++ {
		for ch := 0; ch < c; ch++ {
			plane := src[(i*c+ch)*spatial : (i*c+ch+1)*spatial]
			for p, v := range plane {
				dst[(i*spatial+p)*c+ch] = v
			}
		}
	}
}

func rowsToNCHW[T tensor.Float](dst, src []T, n, c, spatial int) {
	for i := 0; i < n; i++ {
		for ch := 0; ch < c; ch++ {
			plane := dst[(i*c+ch)*spatial : (i*c+ch+1)*spatial]
			for p := range plane {
				plane[p] = src[(i*spatial+p)*c+ch]
			}
		}
	}
}
