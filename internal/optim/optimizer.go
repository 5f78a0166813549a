// Package optim implements optimization algorithms that update a model's
// parameter store between forward/backward round trips.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Parameters and gradients are exchanged through the keyed mapping view
// ("W1", "b1", ...), so an optimizer never needs to know the network layout.
//
// Example usage:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 1e-3})
//
//	for range iterations {
//	    res, err := model.Loss(x, labels, nn.Train)
//	    if err != nil {
//	        return err
//	    }
//	    if err := optimizer.Step(model.Params().Map(), res.Grads.Map()); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/convnet/internal/tensor"
)

// ErrMismatch reports a gradient whose shape or dtype differs from its parameter.
var ErrMismatch = errors.New("optim: gradient does not match parameter")

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step updates params in place from grads.
	//
	// Keys present in params but absent from grads are left untouched.
	// Gradients for unknown keys are ignored.
	Step(params, grads map[string]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// pairs returns the (param, grad) pairs to update, or an error if any gradient
// does not match its parameter. Nothing is mutated when an error is returned.
func pairs(params, grads map[string]*tensor.RawTensor) ([]string, error) {
	keys := make([]string, 0, len(params))
	for key, p := range params {
		g, ok := grads[key]
		if !ok || g == nil || p == nil {
			continue
		}
		if !p.Shape().Equal(g.Shape()) {
			return nil, errors.Wrapf(ErrMismatch, "%s: shape %v vs %v", key, g.Shape(), p.Shape())
		}
		if p.DType() != g.DType() {
			return nil, errors.Wrapf(ErrMismatch, "%s: dtype %s vs %s", key, g.DType(), p.DType())
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// slot returns the state buffer stored under key, allocating a zero tensor
// shaped like p when it is missing or stale.
func slot(state map[string]*tensor.RawTensor, key string, p *tensor.RawTensor) *tensor.RawTensor {
	buf, ok := state[key]
	if !ok || !buf.Shape().Equal(p.Shape()) || buf.DType() != p.DType() {
		buf = tensor.Zeros(p.Shape(), p.DType())
		state[key] = buf
	}
	return buf
}
