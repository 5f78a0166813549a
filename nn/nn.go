// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Backend is the set of numeric kernels the operators compute through.
type Backend = nn.Backend

// Mode selects how normalization layers treat their statistics.
type Mode = nn.Mode

// Modes.
const (
	Train Mode = nn.Train
	Eval  Mode = nn.Eval
)

// Normalization defaults.
const (
	DefaultMomentum = nn.DefaultMomentum
	DefaultEps      = nn.DefaultEps
)

// BatchNormState holds running statistics of a normalization layer.
type BatchNormState = nn.BatchNormState

// NewBatchNormState creates running statistics for d features, with mean 0
// and variance 1.
func NewBatchNormState(d int, dtype tensor.DataType, momentum, eps float64) *BatchNormState {
	return nn.NewBatchNormState(d, dtype, momentum, eps)
}

// Layer parameters.
type (
	ConvParam = nn.ConvParam
	PoolParam = nn.PoolParam
)

// Caches carried from a forward call to its backward call.
type (
	ConvReLUPoolCache   = nn.ConvReLUPoolCache
	ConvBNReLUPoolCache = nn.ConvBNReLUPoolCache
	AffineReLUCache     = nn.AffineReLUCache
	AffineBNReLUCache   = nn.AffineBNReLUCache
	AffineCache         = nn.AffineCache
)

// ConvReLUPoolForward computes conv -> relu -> max pool.
func ConvReLUPoolForward(be Backend, x, w, b *tensor.RawTensor, conv ConvParam, pool PoolParam) (*tensor.RawTensor, *ConvReLUPoolCache) {
	return nn.ConvReLUPoolForward(be, x, w, b, conv, pool)
}

// ConvReLUPoolBackward is the backward pass of ConvReLUPoolForward.
func ConvReLUPoolBackward(be Backend, dout *tensor.RawTensor, cache *ConvReLUPoolCache) (dx, dw, db *tensor.RawTensor) {
	return nn.ConvReLUPoolBackward(be, dout, cache)
}

// ConvBNReLUPoolForward computes conv -> spatial batch norm -> relu -> max pool.
func ConvBNReLUPoolForward(be Backend, x, w, b, gamma, beta *tensor.RawTensor, conv ConvParam, pool PoolParam,
	state *BatchNormState, mode Mode,
) (*tensor.RawTensor, *ConvBNReLUPoolCache) {
	return nn.ConvBNReLUPoolForward(be, x, w, b, gamma, beta, conv, pool, state, mode)
}

// ConvBNReLUPoolBackward is the backward pass of ConvBNReLUPoolForward.
func ConvBNReLUPoolBackward(be Backend, dout *tensor.RawTensor, cache *ConvBNReLUPoolCache) (dx, dw, db, dgamma, dbeta *tensor.RawTensor) {
	return nn.ConvBNReLUPoolBackward(be, dout, cache)
}

// AffineReLUForward computes affine -> relu, flattening x to [N, D].
func AffineReLUForward(be Backend, x, w, b *tensor.RawTensor) (*tensor.RawTensor, *AffineReLUCache) {
	return nn.AffineReLUForward(be, x, w, b)
}

// AffineReLUBackward is the backward pass of AffineReLUForward.
func AffineReLUBackward(be Backend, dout *tensor.RawTensor, cache *AffineReLUCache) (dx, dw, db *tensor.RawTensor) {
	return nn.AffineReLUBackward(be, dout, cache)
}

// AffineBNReLUForward computes affine -> batch norm -> relu.
func AffineBNReLUForward(be Backend, x, w, b, gamma, beta *tensor.RawTensor, state *BatchNormState, mode Mode) (*tensor.RawTensor, *AffineBNReLUCache) {
	return nn.AffineBNReLUForward(be, x, w, b, gamma, beta, state, mode)
}

// AffineBNReLUBackward is the backward pass of AffineBNReLUForward.
func AffineBNReLUBackward(be Backend, dout *tensor.RawTensor, cache *AffineBNReLUCache) (dx, dw, db, dgamma, dbeta *tensor.RawTensor) {
	return nn.AffineBNReLUBackward(be, dout, cache)
}

// AffineForward computes x·w + b.
func AffineForward(be Backend, x, w, b *tensor.RawTensor) (*tensor.RawTensor, *AffineCache) {
	return nn.AffineForward(be, x, w, b)
}

// AffineBackward is the backward pass of AffineForward.
func AffineBackward(be Backend, dout *tensor.RawTensor, cache *AffineCache) (dx, dw, db *tensor.RawTensor) {
	return nn.AffineBackward(be, dout, cache)
}

// SoftmaxLoss returns the mean cross-entropy of scores against labels and
// its gradient w.r.t. scores.
func SoftmaxLoss(be Backend, scores *tensor.RawTensor, labels []int) (float64, *tensor.RawTensor) {
	return nn.SoftmaxLoss(be, scores, labels)
}
