package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// PoolOutputSize returns the spatial output size of a pooling window along
// one axis: (size - window) / stride + 1.
func PoolOutputSize(size, window, stride int) int {
	return (size-window)/stride + 1
}

// MaxPool2D performs 2D max pooling with a poolH×poolW window.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, HOut, WOut] with
//
//	HOut = (H - poolH) / stride + 1
//	WOut = (W - poolW) / stride + 1
//
// Alongside the output it returns, for every output element, the flat index
// into the input of the element that won the window. Ties go to the first
// element in row-major order. MaxPool2DBackward uses the indices to route
// gradients.
//
// Example (2x2 pool, stride=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, poolH, poolW, stride int) (*tensor.RawTensor, []int) {
	requireRank("maxpool2d", "input", input, 4)
	shape := input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]

	if poolH <= 0 || poolW <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid window %dx%d", poolH, poolW))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if poolH > h || poolW > w {
		panic(fmt.Sprintf("maxpool2d: window %dx%d too large for input %dx%d", poolH, poolW, h, w))
	}

	hOut := PoolOutputSize(h, poolH, stride)
	wOut := PoolOutputSize(w, poolW, stride)

	output := newLike("maxpool2d", tensor.Shape{n, c, hOut, wOut}, input.DType())
	indices := make([]int, output.NumElements())

	p := poolGeom{N: n, C: c, H: h, W: w, HOut: hOut, WOut: wOut, PoolH: poolH, PoolW: poolW, Stride: stride}
	switch input.DType() {
	case tensor.Float32:
		maxpool2d(cpu, p, output.AsFloat32(), indices, input.AsFloat32())
	case tensor.Float64:
		maxpool2d(cpu, p, output.AsFloat64(), indices, input.AsFloat64())
	default:
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}

	return output, indices
}

type poolGeom struct {
	N, C, H, W   int
	HOut, WOut   int
	PoolH, PoolW int
	Stride       int
}

func maxpool2d[T tensor.Float](cpu *CPUBackend, p poolGeom, out []T, indices []int, in []T) {
	planeIn := p.H * p.W
	planeOut := p.HOut * p.WOut

	cpu.forSamples(p.N*p.C, func(start, end int) {
		for nc := start; nc < end; nc++ {
			base := nc * planeIn
			channel := in[base : base+planeIn]
			dst := out[nc*planeOut : (nc+1)*planeOut]
			idx := indices[nc*planeOut : (nc+1)*planeOut]

			for oh := 0; oh < p.HOut; oh++ {
				hStart := oh * p.Stride
				for ow := 0; ow < p.WOut; ow++ {
					wStart := ow * p.Stride

					best := hStart*p.W + wStart
					maxVal := channel[best]
					for kh := 0; kh < p.PoolH; kh++ {
						row := (hStart + kh) * p.W
						for kw := 0; kw < p.PoolW; kw++ {
							if v := channel[row+wStart+kw]; v > maxVal {
								maxVal = v
								best = row + wStart + kw
							}
						}
					}

					dst[oh*p.WOut+ow] = maxVal
					idx[oh*p.WOut+ow] = base + best
				}
			}
		}
	})
}
