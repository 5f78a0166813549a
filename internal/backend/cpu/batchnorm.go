package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// BatchNormStats returns the per-feature mean and biased variance of x [N, D].
// Statistics are accumulated in float64 and stored in x's dtype.
func (cpu *CPUBackend) BatchNormStats(x *tensor.RawTensor) (mean, variance *tensor.RawTensor) {
	requireRank("BatchNormStats", "x", x, 2)
	n, d := x.Shape()[0], x.Shape()[1]

	values := x.Float64s()
	mu := make([]float64, d)
	for i := 0; i < n; i++ {
		for j, v := range values[i*d : (i+1)*d] {
			mu[j] += v
		}
	}
	for j := range mu {
		mu[j] /= float64(n)
	}

	vr := make([]float64, d)
	for i := 0; i < n; i++ {
		for j, v := range values[i*d : (i+1)*d] {
			diff := v - mu[j]
			vr[j] += diff * diff
		}
	}
	for j := range vr {
		vr[j] /= float64(n)
	}

	mean = newLike("BatchNormStats", tensor.Shape{d}, x.DType())
	mean.SetFloat64s(mu)
	variance = newLike("BatchNormStats", tensor.Shape{d}, x.DType())
	variance.SetFloat64s(vr)
	return mean, variance
}

// BatchNormApply normalizes x [N, D] with the given per-feature statistics
// and applies the learned scale and shift.
//
// Returns:
//   - out: gamma * xhat + beta
//   - xhat: (x - mean) / sqrt(variance + eps), kept for the backward pass
func (cpu *CPUBackend) BatchNormApply(x, mean, variance, gamma, beta *tensor.RawTensor, eps float64) (out, xhat *tensor.RawTensor) {
	requireRank("BatchNormApply", "x", x, 2)
	requireSameDType("BatchNormApply", x, mean, variance, gamma, beta)
	d := x.Shape()[1]
	for _, v := range []*tensor.RawTensor{mean, variance, gamma, beta} {
		if v.NumElements() != d {
			panic(fmt.Sprintf("BatchNormApply: per-feature tensor has %d elements, want %d", v.NumElements(), d))
		}
	}

	out = newLike("BatchNormApply", x.Shape(), x.DType())
	xhat = newLike("BatchNormApply", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		batchNormApply(out.AsFloat32(), xhat.AsFloat32(), x.AsFloat32(),
			mean.Float64s(), variance.Float64s(), gamma.Float64s(), beta.Float64s(), eps)
	case tensor.Float64:
		batchNormApply(out.AsFloat64(), xhat.AsFloat64(), x.AsFloat64(),
			mean.Float64s(), variance.Float64s(), gamma.Float64s(), beta.Float64s(), eps)
	default:
		panic(fmt.Sprintf("BatchNormApply: unsupported dtype %s", x.DType()))
	}
	return out, xhat
}

func batchNormApply[T tensor.Float](out, xhat, x []T, mean, variance, gamma, beta []float64, eps float64) {
	d := len(mean)
	invStd := make([]float64, d)
	for j, v := range variance {
		invStd[j] = 1 / math.Sqrt(v+eps)
	}
	for off := 0; off < len(x); off += d {
		for j := 0; j < d; j++ {
			h := (float64(x[off+j]) - mean[j]) * invStd[j]
			xhat[off+j] = T(h)
			out[off+j] = T(gamma[j]*h + beta[j])
		}
	}
}

// BatchNormBackward computes the gradients of BatchNormApply.
//
// Parameters:
//   - grad: Upstream gradient [N, D]
//   - xhat: Normalized input saved by BatchNormApply [N, D]
//   - gamma: Scale [D]
//   - variance: The variance used in the forward pass [D]
//   - eps: The epsilon used in the forward pass
//   - training: Whether the statistics were computed from the batch itself
//
// Returns dx [N, D], dgamma [D] and dbeta [D].
//
// In training form the statistics depend on x, so
//
//	dx = invstd/N * (N*dxhat - sum(dxhat) - xhat*sum(dxhat*xhat))
//
// with dxhat = grad*gamma. Otherwise the statistics are constants and
// dx = dxhat * invstd.
func (cpu *CPUBackend) BatchNormBackward(grad, xhat, gamma, variance *tensor.RawTensor, eps float64, training bool) (dx, dgamma, dbeta *tensor.RawTensor) {
	requireRank("BatchNormBackward", "grad", grad, 2)
	if !grad.Shape().Equal(xhat.Shape()) {
		panic(fmt.Sprintf("BatchNormBackward: gradient shape %v != xhat shape %v", grad.Shape(), xhat.Shape()))
	}
	requireSameDType("BatchNormBackward", grad, xhat, gamma, variance)
	n, d := grad.Shape()[0], grad.Shape()[1]

	g := grad.Float64s()
	h := xhat.Float64s()
	gm := gamma.Float64s()
	vr := variance.Float64s()

	dg := make([]float64, d)
	db := make([]float64, d)
	sumDxhat := make([]float64, d)
	sumDxhatXhat := make([]float64, d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			k := i*d + j
			dg[j] += g[k] * h[k]
			db[j] += g[k]
			dxh := g[k] * gm[j]
			sumDxhat[j] += dxh
			sumDxhatXhat[j] += dxh * h[k]
		}
	}

	out := make([]float64, n*d)
	for j := 0; j < d; j++ {
		invStd := 1 / math.Sqrt(vr[j]+eps)
		for i := 0; i < n; i++ {
			k := i*d + j
			dxh := g[k] * gm[j]
			if training {
				out[k] = invStd / float64(n) * (float64(n)*dxh - sumDxhat[j] - h[k]*sumDxhatXhat[j])
			} else {
				out[k] = dxh * invStd
			}
		}
	}

	dx = newLike("BatchNormBackward", grad.Shape(), grad.DType())
	dx.SetFloat64s(out)
	dgamma = newLike("BatchNormBackward", tensor.Shape{d}, grad.DType())
	dgamma.SetFloat64s(dg)
	dbeta = newLike("BatchNormBackward", tensor.Shape{d}, grad.DType())
	dbeta.SetFloat64s(db)
	return dx, dgamma, dbeta
}
