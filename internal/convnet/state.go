package convnet

import (
	"github.com/born-ml/convnet/internal/nn"
)

// NormState holds the running statistics of the two normalized stages.
// It exists only when batch normalization is enabled.
type NormState struct {
	Spatial *nn.BatchNormState // per filter, after the convolution
	Hidden  *nn.BatchNormState // per hidden unit, after the first affine
}

func newNormState(cfg Config) *NormState {
	bn := cfg.BatchNorm
	return &NormState{
		Spatial: nn.NewBatchNormState(cfg.NumFilters, cfg.DType, bn.Momentum, bn.Eps),
		Hidden:  nn.NewBatchNormState(cfg.HiddenDim, cfg.DType, bn.Momentum, bn.Eps),
	}
}

// Clone returns a deep copy.
func (s *NormState) Clone() *NormState {
	if s == nil {
		return nil
	}
	return &NormState{Spatial: s.Spatial.Clone(), Hidden: s.Hidden.Clone()}
}
