// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers that update a model's parameters from
// the gradients of a round trip.
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 1e-2, Momentum: 0.9})
//	res, err := model.Loss(x, labels, convnet.Train)
//	if err != nil {
//	    return err
//	}
//	err = opt.Step(model.Params().Map(), res.Grads.Map())
package optim
