// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend used by the convnet model.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Im2col algorithm with gonum GEMM for convolutions
//   - Float32 and Float64 support
//   - Per-sample parallelism across the batch
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/convnet/backend/cpu"
//	    "github.com/born-ml/convnet/convnet"
//	)
//
//	func main() {
//	    model, err := convnet.New(convnet.DefaultConfig(), convnet.WithBackend(cpu.New()))
//	    ...
//	}
package cpu
