package cpu

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// MatMul performs matrix multiplication of 2D tensors through gonum GEMM.
//
// With transA and transB false it computes (M, K) @ (K, N) -> (M, N).
// Setting transA (transB) multiplies by the transpose of a (b) without
// materializing it, which is how the affine backward pass forms xᵀ·dout
// and dout·Wᵀ.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor, transA, transB bool) *tensor.RawTensor {
	requireRank("matmul", "a", a, 2)
	requireRank("matmul", "b", b, 2)
	requireSameDType("matmul", a, b)

	m, k := a.Shape()[0], a.Shape()[1]
	if transA {
		m, k = k, m
	}
	kb, n := b.Shape()[0], b.Shape()[1]
	if transB {
		kb, n = n, kb
	}
	if k != kb {
		panic(fmt.Sprintf("matmul: shape mismatch %v (trans=%t) @ %v (trans=%t)", a.Shape(), transA, b.Shape(), transB))
	}

	result := newLike("matmul", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		gemm(transA, transB, m, n, k, 1, a.AsFloat32(), b.AsFloat32(), 0, result.AsFloat32())
	case tensor.Float64:
		gemm(transA, transB, m, n, k, 1, a.AsFloat64(), b.AsFloat64(), 0, result.AsFloat64())
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// AddRowVector adds v [D] to every row of m [N, D] and returns the result.
func (cpu *CPUBackend) AddRowVector(m, v *tensor.RawTensor) *tensor.RawTensor {
	requireRank("AddRowVector", "matrix", m, 2)
	requireSameDType("AddRowVector", m, v)
	d := m.Shape()[1]
	if v.NumElements() != d {
		panic(fmt.Sprintf("AddRowVector: vector has %d elements, want %d", v.NumElements(), d))
	}

	result := m.Clone()
	switch m.DType() {
	case tensor.Float32:
		addRows(result.AsFloat32(), v.AsFloat32(), d)
	case tensor.Float64:
		addRows(result.AsFloat64(), v.AsFloat64(), d)
	default:
		panic(fmt.Sprintf("AddRowVector: unsupported dtype %s", m.DType()))
	}
	return result
}

func addRows[T tensor.Float](dst, v []T, d int) {
	for off := 0; off < len(dst); off += d {
		row := dst[off : off+d]
		for j := range row {
			row[j] += v[j]
		}
	}
}

// SumRows reduces m [N, D] over its rows, returning the column sums [D].
func (cpu *CPUBackend) SumRows(m *tensor.RawTensor) *tensor.RawTensor {
	requireRank("SumRows", "matrix", m, 2)
	d := m.Shape()[1]
	result := newLike("SumRows", tensor.Shape{d}, m.DType())

	switch m.DType() {
	case tensor.Float32:
		sumRows(result.AsFloat32(), m.AsFloat32(), d)
	case tensor.Float64:
		sumRows(result.AsFloat64(), m.AsFloat64(), d)
	default:
		panic(fmt.Sprintf("SumRows: unsupported dtype %s", m.DType()))
	}
	return result
}

func sumRows[T tensor.Float](dst, src []T, d int) {
	for off := 0; off < len(src); off += d {
		for j, v := range src[off : off+d] {
			dst[j] += v
		}
	}
}
