// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/layoutnet/internal/backend/cpu"
	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/born-ml/layoutnet/network"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go kernels for every primitive kind. Kernels
// address elements through their layouts, so they read any input format.
type Backend = internalcpu.CPUBackend

// Config controls how kernels split work across goroutines.
type Config = parallel.Config

// Compile-time check that Backend implements network.Backend.
var _ network.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/layoutnet/backend/cpu"
//	    "github.com/born-ml/layoutnet/network"
//	)
//
//	func main() {
//	    net, err := network.Compile(top, network.NewBuildOptions(), cpu.New())
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit kernel parallelism.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns parallelism defaults based on CPU count.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}
