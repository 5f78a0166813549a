package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/parallel"
	"github.com/born-ml/convnet/internal/tensor"
)

// convGeom holds the dimensions shared by the convolution kernels.
type convGeom struct {
	N, C, H, W      int
	F, KH, KW       int
	HOut, WOut      int
	Stride, Padding int
}

// cols is the width of one im2col row.
func (g convGeom) cols() int { return g.C * g.KH * g.KW }

// positions is the number of output positions per sample.
func (g convGeom) positions() int { return g.HOut * g.WOut }

// ConvOutputSize returns the spatial output size of a convolution along one
// axis: (size + 2*padding - kernel) / stride + 1.
func ConvOutputSize(size, kernel, stride, padding int) int {
	return (size+2*padding-kernel)/stride + 1
}

func newConvGeom(op string, inputShape, kernelShape tensor.Shape, stride, padding int) convGeom {
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D [F,C,KH,KW], got %dD", op, len(kernelShape)))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d or padding %d", op, stride, padding))
	}
	g := convGeom{
		N: inputShape[0], C: inputShape[1], H: inputShape[2], W: inputShape[3],
		F: kernelShape[0], KH: kernelShape[2], KW: kernelShape[3],
		Stride: stride, Padding: padding,
	}
	if g.C != kernelShape[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, g.C, kernelShape[1]))
	}
	g.HOut = ConvOutputSize(g.H, g.KH, stride, padding)
	g.WOut = ConvOutputSize(g.W, g.KW, stride, padding)
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions %dx%d (check stride/padding)", op, g.HOut, g.WOut))
	}
	return g
}

// Conv2D performs a 2D convolution using the im2col algorithm.
//
// Parameters:
//   - input: Input tensor [N, C, H, W]
//   - kernel: Convolution kernel [F, C, KH, KW]
//   - bias: Per-filter bias [F], or nil
//   - stride: Stride for both spatial axes
//   - padding: Zero padding on every border
//
// Returns the output tensor [N, F, HOut, WOut].
//
// Each sample is unfolded into a [HOut*WOut, C*KH*KW] patch matrix and
// multiplied by the kernel viewed as [F, C*KH*KW] with a single GEMM, which
// writes the sample's output directly in NCHW order. Samples are processed
// in parallel.
func (cpu *CPUBackend) Conv2D(input, kernel, bias *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d", input.Shape(), kernel.Shape(), stride, padding)
	requireSameDType("conv2d", input, kernel)
	if bias != nil {
		requireSameDType("conv2d", input, bias)
		if bias.NumElements() != g.F {
			panic(fmt.Sprintf("conv2d: bias has %d elements, want %d", bias.NumElements(), g.F))
		}
	}

	output := newLike("conv2d", tensor.Shape{g.N, g.F, g.HOut, g.WOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2d(cpu, g, output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), biasData[float32](bias))
	case tensor.Float64:
		conv2d(cpu, g, output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), biasData[float64](bias))
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

func biasData[T tensor.Float](bias *tensor.RawTensor) []T {
	if bias == nil {
		return nil
	}
	return tensor.Data[T](bias)
}

func conv2d[T tensor.Float](cpu *CPUBackend, g convGeom, out, in, kernel, bias []T) {
	inSize := g.C * g.H * g.W
	outSize := g.F * g.positions()

	cpu.forSamples(g.N, func(start, end int) {
		col := make([]T, g.positions()*g.cols())
		for n := start; n < end; n++ {
			im2col(g, col, in[n*inSize:(n+1)*inSize])
			dst := out[n*outSize : (n+1)*outSize]
			// [F, K] x [P, K]^T -> [F, P]
			gemm(false, true, g.F, g.positions(), g.cols(), 1, kernel, col, 0, dst)
			if bias != nil {
				for f := 0; f < g.F; f++ {
					row := dst[f*g.positions() : (f+1)*g.positions()]
					for i := range row {
						row[i] += bias[f]
					}
				}
			}
		}
	})
}

// im2col unfolds one [C, H, W] sample into col [HOut*WOut, C*KH*KW].
// Each row of col holds the receptive field of one output position;
// positions that fall into the padding read as zero.
func im2col[T tensor.Float](g convGeom, col, in []T) {
	idx := 0
	for oh := 0; oh < g.HOut; oh++ {
		for ow := 0; ow < g.WOut; ow++ {
			hStart := oh*g.Stride - g.Padding
			wStart := ow*g.Stride - g.Padding
			for c := 0; c < g.C; c++ {
				plane := in[c*g.H*g.W:]
				for kh := 0; kh < g.KH; kh++ {
					h := hStart + kh
					for kw := 0; kw < g.KW; kw++ {
						w := wStart + kw
						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							col[idx] = plane[h*g.W+w]
						} else {
							col[idx] = 0
						}
						idx++
					}
				}
			}
		}
	}
}

// col2im is the adjoint of im2col: it scatters col [HOut*WOut, C*KH*KW]
// back into one [C, H, W] sample, accumulating overlapping contributions.
// Entries mapped to the padding are dropped.
func col2im[T tensor.Float](g convGeom, in, col []T) {
	idx := 0
	for oh := 0; oh < g.HOut; oh++ {
		for ow := 0; ow < g.WOut; ow++ {
			hStart := oh*g.Stride - g.Padding
			wStart := ow*g.Stride - g.Padding
			for c := 0; c < g.C; c++ {
				plane := in[c*g.H*g.W:]
				for kh := 0; kh < g.KH; kh++ {
					h := hStart + kh
					for kw := 0; kw < g.KW; kw++ {
						w := wStart + kw
						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							plane[h*g.W+w] += col[idx]
						}
						idx++
					}
				}
			}
		}
	}
}

// forSamples splits a batch of n samples into contiguous chunks.
func (cpu *CPUBackend) forSamples(n int, f func(start, end int)) {
	cfg := cpu.parallel
	cfg.MinChunkSize = 1
	parallel.ForRange(n, f, cfg)
}
