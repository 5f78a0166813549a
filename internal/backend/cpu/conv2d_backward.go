package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Conv2DInputBackward computes the gradient of a convolution w.r.t. its input.
//
// Parameters:
//   - inputShape: Shape of the forward input [N, C, H, W]
//   - kernel: Convolution kernel [F, C, KH, KW]
//   - grad: Upstream gradient [N, F, HOut, WOut]
//   - stride, padding: Same values used in the forward pass
//
// For every sample the patch gradient dCol = grad_nᵀ · kernel is computed
// with one GEMM and folded back onto the input with col2im.
func (cpu *CPUBackend) Conv2DInputBackward(inputShape tensor.Shape, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("Conv2DInputBackward", inputShape, kernel.Shape(), stride, padding)
	checkConvGrad("Conv2DInputBackward", g, grad)
	requireSameDType("Conv2DInputBackward", grad, kernel)

	inputGrad := newLike("Conv2DInputBackward", inputShape, grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		conv2dInputBackward(cpu, g, inputGrad.AsFloat32(), kernel.AsFloat32(), grad.AsFloat32())
	case tensor.Float64:
		conv2dInputBackward(cpu, g, inputGrad.AsFloat64(), kernel.AsFloat64(), grad.AsFloat64())
	default:
		panic(fmt.Sprintf("Conv2DInputBackward: unsupported dtype %s", grad.DType()))
	}

	return inputGrad
}

func conv2dInputBackward[T tensor.Float](cpu *CPUBackend, g convGeom, dx, kernel, grad []T) {
	inSize := g.C * g.H * g.W
	outSize := g.F * g.positions()

	cpu.forSamples(g.N, func(start, end int) {
		dcol := make([]T, g.positions()*g.cols())
		for n := start; n < end; n++ {
			// [F, P]^T x [F, K] -> [P, K]
			gemm(true, false, g.positions(), g.cols(), g.F, 1, grad[n*outSize:(n+1)*outSize], kernel, 0, dcol)
			col2im(g, dx[n*inSize:(n+1)*inSize], dcol)
		}
	})
}

// Conv2DKernelBackward computes the gradient of a convolution w.r.t. its kernel.
//
// Parameters:
//   - input: Forward input [N, C, H, W]
//   - kernelShape: Shape of the kernel [F, C, KH, KW]
//   - grad: Upstream gradient [N, F, HOut, WOut]
//   - stride, padding: Same values used in the forward pass
//
// Per-sample contributions grad_n · col_n are accumulated into one partial
// sum per worker chunk; the partials are then reduced in chunk order so the
// result does not depend on goroutine scheduling.
func (cpu *CPUBackend) Conv2DKernelBackward(input *tensor.RawTensor, kernelShape tensor.Shape, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("Conv2DKernelBackward", input.Shape(), kernelShape, stride, padding)
	checkConvGrad("Conv2DKernelBackward", g, grad)
	requireSameDType("Conv2DKernelBackward", input, grad)

	kernelGrad := newLike("Conv2DKernelBackward", kernelShape, grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		conv2dKernelBackward(cpu, g, kernelGrad.AsFloat32(), input.AsFloat32(), grad.AsFloat32())
	case tensor.Float64:
		conv2dKernelBackward(cpu, g, kernelGrad.AsFloat64(), input.AsFloat64(), grad.AsFloat64())
	default:
		panic(fmt.Sprintf("Conv2DKernelBackward: unsupported dtype %s", grad.DType()))
	}

	return kernelGrad
}

func conv2dKernelBackward[T tensor.Float](cpu *CPUBackend, g convGeom, dw, in, grad []T) {
	inSize := g.C * g.H * g.W
	outSize := g.F * g.positions()

	partials := make([][]T, g.N)

	cpu.forSamples(g.N, func(start, end int) {
		col := make([]T, g.positions()*g.cols())
		acc := make([]T, len(dw))
		for n := start; n < end; n++ {
			im2col(g, col, in[n*inSize:(n+1)*inSize])
			// [F, P] x [P, K] -> [F, K]
			gemm(false, false, g.F, g.cols(), g.positions(), 1, grad[n*outSize:(n+1)*outSize], col, 1, acc)
		}
		partials[start] = acc
	})

	for _, acc := range partials {
		for i, v := range acc {
			dw[i] += v
		}
	}
}

// Conv2DBiasBackward sums the upstream gradient [N, F, HOut, WOut] over the
// batch and spatial axes, giving the bias gradient [F].
func (cpu *CPUBackend) Conv2DBiasBackward(grad *tensor.RawTensor) *tensor.RawTensor {
	requireRank("Conv2DBiasBackward", "grad", grad, 4)
	shape := grad.Shape()
	n, f, spatial := shape[0], shape[1], shape[2]*shape[3]

	biasGrad := newLike("Conv2DBiasBackward", tensor.Shape{f}, grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		sumChannels(biasGrad.AsFloat32(), grad.AsFloat32(), n, f, spatial)
	case tensor.Float64:
		sumChannels(biasGrad.AsFloat64(), grad.AsFloat64(), n, f, spatial)
	default:
		panic(fmt.Sprintf("Conv2DBiasBackward: unsupported dtype %s", grad.DType()))
	}

	return biasGrad
}

func sumChannels[T tensor.Float](dst, src []T, n, c, spatial int) {
	for i := 0; i < n; i++ {
		for ch := 0; ch < c; ch++ {
			plane := src[(i*c+ch)*spatial : (i*c+ch+1)*spatial]
			var sum T
			for _, v := range plane {
				sum += v
			}
			dst[ch] += sum
		}
	}
}

func checkConvGrad(op string, g convGeom, grad *tensor.RawTensor) {
	want := tensor.Shape{g.N, g.F, g.HOut, g.WOut}
	if !grad.Shape().Equal(want) {
		panic(fmt.Sprintf("%s: gradient shape %v, want %v", op, grad.Shape(), want))
	}
}
