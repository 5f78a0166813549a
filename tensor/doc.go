// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensors the convnet model consumes and
// produces.
//
// # Overview
//
// A RawTensor is a contiguous, row-major buffer of float32 or float64
// values with a shape. Images are laid out NCHW, scores and hidden
// activations are [N, D].
//
// # Basic Usage
//
//	import "github.com/born-ml/convnet/tensor"
//
//	func main() {
//	    x := tensor.Zeros(tensor.Shape{8, 3, 32, 32}, tensor.Float32)
//	    w := tensor.Randn(tensor.Shape{32, 3, 7, 7}, tensor.Float32, 1e-3, nil)
//	    fmt.Println(x, w.Shape())
//	}
//
// # Precision
//
// Every tensor in a model shares the model's DataType. Float64 is meant for
// numeric gradient checks; Float32 is the default for everything else.
package tensor
