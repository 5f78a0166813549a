package optim

import (
	"github.com/born-ml/convnet/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//	err := optimizer.Step(model.Params().Map(), res.Grads.Map())
type SGD struct {
	lr         float64
	momentum   float64
	velocities map[string]*tensor.RawTensor
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[string]*tensor.RawTensor),
	}
}

// Step performs a single optimization step.
func (s *SGD) Step(params, grads map[string]*tensor.RawTensor) error {
	keys, err := pairs(params, grads)
	if err != nil {
		return err
	}

	for _, key := range keys {
		p, g := params[key], grads[key]
		if s.momentum == 0 {
			tensor.AddScaled(p, -s.lr, g)
			continue
		}

		v := slot(s.velocities, key, p)
		tensor.Scale(v, s.momentum)
		tensor.AddScaled(v, 1, g)
		tensor.AddScaled(p, -s.lr, v)
	}
	return nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum, this exports velocity buffers for each parameter.
// Without momentum, returns an empty map.
//
// State keys: "velocity.{param_key}" -> velocity tensor.
func (s *SGD) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}
	for key, v := range s.velocities {
		stateDict["velocity."+key] = v.Clone()
	}
	return stateDict
}
