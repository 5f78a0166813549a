package nn

import (
	"fmt"

	"github.com/born-ml/convnet/internal/tensor"
)

// Default normalization hyperparameters.
const (
	DefaultMomentum = 0.9
	DefaultEps      = 1e-5
)

// BatchNormState owns the running statistics of one normalization layer.
//
// In Train mode each forward pass folds the batch statistics into the
// running averages:
//
//	running = momentum*running + (1-momentum)*batch
//
// In Eval mode the running averages are used as-is and never written.
type BatchNormState struct {
	RunningMean *tensor.RawTensor
	RunningVar  *tensor.RawTensor
	Momentum    float64
	Eps         float64
}

// NewBatchNormState creates a state for d features with zero running mean
// and unit running variance.
func NewBatchNormState(d int, dtype tensor.DataType, momentum, eps float64) *BatchNormState {
	return &BatchNormState{
		RunningMean: tensor.Zeros(tensor.Shape{d}, dtype),
		RunningVar:  tensor.Ones(tensor.Shape{d}, dtype),
		Momentum:    momentum,
		Eps:         eps,
	}
}

// Clone returns a deep copy of the state.
func (s *BatchNormState) Clone() *BatchNormState {
	return &BatchNormState{
		RunningMean: s.RunningMean.Clone(),
		RunningVar:  s.RunningVar.Clone(),
		Momentum:    s.Momentum,
		Eps:         s.Eps,
	}
}

func (s *BatchNormState) update(mean, variance *tensor.RawTensor) {
	tensor.Scale(s.RunningMean, s.Momentum)
	tensor.AddScaled(s.RunningMean, 1-s.Momentum, mean)
	tensor.Scale(s.RunningVar, s.Momentum)
	tensor.AddScaled(s.RunningVar, 1-s.Momentum, variance)
}

// BatchNormCache is what BatchNormBackward needs from BatchNormForward.
type BatchNormCache struct {
	xhat     *tensor.RawTensor
	gamma    *tensor.RawTensor
	variance *tensor.RawTensor
	eps      float64
	mode     Mode
}

// BatchNormForward normalizes x [N, D] per feature and applies gamma and
// beta [D]. In Train mode it normalizes with the batch statistics and
// updates state; in Eval mode it normalizes with state's running averages.
func BatchNormForward(be Backend, x, gamma, beta *tensor.RawTensor, state *BatchNormState, mode Mode) (*tensor.RawTensor, *BatchNormCache) {
	if state == nil {
		panic("batchnorm: nil state")
	}

	var mean, variance *tensor.RawTensor
	switch mode {
	case Train:
		mean, variance = be.BatchNormStats(x)
		state.update(mean, variance)
	case Eval:
		mean, variance = state.RunningMean, state.RunningVar.Clone()
	default:
		panic(fmt.Sprintf("batchnorm: unknown mode %d", mode))
	}

	out, xhat := be.BatchNormApply(x, mean, variance, gamma, beta, state.Eps)
	return out, &BatchNormCache{xhat: xhat, gamma: gamma, variance: variance, eps: state.Eps, mode: mode}
}

// BatchNormBackward returns dx, dgamma and dbeta.
func BatchNormBackward(be Backend, dout *tensor.RawTensor, cache *BatchNormCache) (dx, dgamma, dbeta *tensor.RawTensor) {
	return be.BatchNormBackward(dout, cache.xhat, cache.gamma, cache.variance, cache.eps, cache.mode == Train)
}

// SpatialBatchNormCache wraps a BatchNormCache with the NCHW input shape.
type SpatialBatchNormCache struct {
	shape tensor.Shape
	bn    *BatchNormCache
}

// SpatialBatchNormForward normalizes x [N, C, H, W] per channel, pooling
// statistics over the batch and both spatial axes. gamma and beta have
// shape (C,).
func SpatialBatchNormForward(be Backend, x, gamma, beta *tensor.RawTensor, state *BatchNormState, mode Mode) (*tensor.RawTensor, *SpatialBatchNormCache) {
	rows := be.ToChannelRows(x)
	out, cache := BatchNormForward(be, rows, gamma, beta, state, mode)
	return be.FromChannelRows(out, x.Shape()), &SpatialBatchNormCache{shape: x.Shape(), bn: cache}
}

// SpatialBatchNormBackward returns dx [N, C, H, W], dgamma and dbeta.
func SpatialBatchNormBackward(be Backend, dout *tensor.RawTensor, cache *SpatialBatchNormCache) (dx, dgamma, dbeta *tensor.RawTensor) {
	drows, dgamma, dbeta := BatchNormBackward(be, be.ToChannelRows(dout), cache.bn)
	return be.FromChannelRows(drows, cache.shape), dgamma, dbeta
}
