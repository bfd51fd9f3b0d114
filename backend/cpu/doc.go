// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for compiled networks.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Direct convolution with stride, padding and bias
//   - Reorder between any formats with f32/f16/i32/i8/u8 conversion
//   - Concatenation, tile, reshape and element-wise activations
//   - Data-parallel kernels over (batch, feature) work items
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/layoutnet/backend/cpu"
//	    "github.com/born-ml/layoutnet/network"
//	)
//
//	func main() {
//	    // Create CPU backend
//	    backend := cpu.New()
//
//	    // Compile a topology against it
//	    net, err := network.Compile(top, network.NewBuildOptions(), backend)
//	}
//
// # Custom kernels
//
// Register replaces the kernel for a primitive kind before compilation:
//
//	backend.Register(topology.KindActivation, myActivation)
package cpu
