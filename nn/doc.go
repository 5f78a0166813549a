// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the layer operators the convnet model is built from.
//
// Each operator is a forward/backward pair. Forward returns the output and a
// cache; Backward consumes the upstream gradient and that cache:
//
//	out, cache := nn.ConvReLUPoolForward(be, x, w, b, conv, pool)
//	dx, dw, db := nn.ConvReLUPoolBackward(be, dout, cache)
//
// Normalization operators take a Mode. Train uses batch statistics and
// updates the BatchNormState running averages; Eval uses the running
// averages and leaves them unchanged.
package nn
