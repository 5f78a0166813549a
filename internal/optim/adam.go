package optim

import (
	"math"

	"github.com/born-ml/convnet/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int                          // Timestep for bias correction
	m     map[string]*tensor.RawTensor // First moment estimates
	v     map[string]*tensor.RawTensor // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer, filling unset hyperparameters with
// their defaults.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		m:     make(map[string]*tensor.RawTensor),
		v:     make(map[string]*tensor.RawTensor),
	}
}

// Step performs a single optimization step using Adam algorithm.
//
// The timestep advances once per call, even when grads is empty.
func (a *Adam) Step(params, grads map[string]*tensor.RawTensor) error {
	keys, err := pairs(params, grads)
	if err != nil {
		return err
	}

	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, key := range keys {
		p, g := params[key], grads[key]
		m := slot(a.m, key, p)
		v := slot(a.v, key, p)

		switch p.DType() {
		case tensor.Float32:
			adamUpdate(p.AsFloat32(), g.AsFloat32(), m.AsFloat32(), v.AsFloat32(), a, bc1, bc2)
		case tensor.Float64:
			adamUpdate(p.AsFloat64(), g.AsFloat64(), m.AsFloat64(), v.AsFloat64(), a, bc1, bc2)
		}
	}
	return nil
}

func adamUpdate[T tensor.Float](param, grad, m, v []T, a *Adam, bc1, bc2 float64) {
	for i := range param {
		g := float64(grad[i])
		mi := a.beta1*float64(m[i]) + (1-a.beta1)*g
		vi := a.beta2*float64(v[i]) + (1-a.beta2)*g*g
		m[i], v[i] = T(mi), T(vi)

		mHat := mi / bc1
		vHat := vi / bc2
		param[i] -= T(a.lr * mHat / (math.Sqrt(vHat) + a.eps))
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// Timestep returns the number of steps taken so far.
func (a *Adam) Timestep() int {
	return a.t
}

// StateDict returns the optimizer state for serialization.
//
// State keys: "m.{param_key}", "v.{param_key}" -> moment tensors.
func (a *Adam) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, 2*len(a.m))
	for key, m := range a.m {
		stateDict["m."+key] = m.Clone()
	}
	for key, v := range a.v {
		stateDict["v."+key] = v.Clone()
	}
	return stateDict
}
