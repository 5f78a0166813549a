package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// SumSquares returns the sum of squared elements, accumulated in float64.
func SumSquares(t *RawTensor) float64 {
	n := t.NumElements()
	switch t.dtype {
	case Float32:
		v := blas32.Vector{N: n, Data: t.f32, Inc: 1}
		// DDot accumulates in float64 even for float32 storage.
		return blas32.DDot(v, v)
	case Float64:
		v := blas64.Vector{N: n, Data: t.f64, Inc: 1}
		return blas64.Dot(v, v)
	default:
		panic(fmt.Sprintf("SumSquares: unsupported dtype %s", t.dtype))
	}
}

// AddScaled computes dst += alpha * src in place.
// Both tensors must have the same dtype and element count.
func AddScaled(dst *RawTensor, alpha float64, src *RawTensor) {
	if dst.dtype != src.dtype || dst.NumElements() != src.NumElements() {
		panic(fmt.Sprintf("AddScaled: incompatible tensors %v and %v", dst, src))
	}
	n := dst.NumElements()
	switch dst.dtype {
	case Float32:
		blas32.Axpy(float32(alpha), blas32.Vector{N: n, Data: src.f32, Inc: 1}, blas32.Vector{N: n, Data: dst.f32, Inc: 1})
	case Float64:
		blas64.Axpy(alpha, blas64.Vector{N: n, Data: src.f64, Inc: 1}, blas64.Vector{N: n, Data: dst.f64, Inc: 1})
	}
}

// Scale multiplies every element of t by alpha in place.
func Scale(t *RawTensor, alpha float64) {
	n := t.NumElements()
	switch t.dtype {
	case Float32:
		blas32.Scal(float32(alpha), blas32.Vector{N: n, Data: t.f32, Inc: 1})
	case Float64:
		blas64.Scal(alpha, blas64.Vector{N: n, Data: t.f64, Inc: 1})
	}
}
