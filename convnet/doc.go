// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package convnet provides a three-layer convolutional classifier:
//
//	conv - [batchnorm] - relu - 2x2 max pool - affine - [batchnorm] - relu - affine - softmax
//
// # Basic Usage
//
//	cfg := convnet.DefaultConfig()
//	cfg.UseBatchNorm = true
//
//	model, err := convnet.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := model.Loss(x, labels, convnet.Train)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Loss, res.Grads.Shapes())
//
// Passing nil labels to Loss computes only the scores.
//
// # Configuration
//
// Configurations can be loaded from YAML. Fields missing from the file keep
// their DefaultConfig values:
//
//	input: {channels: 1, height: 28, width: 28}
//	num_filters: 16
//	filter_size: 5
//	dtype: float64
//	use_batchnorm: true
//	batchnorm: {momentum: 0.9, eps: 1e-5}
//
// # Training
//
// The package has no training loop. Optimizers from the optim package update
// Params in place from Result.Grads between calls.
package convnet
