// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network compiles topologies into executable networks.
//
// Compilation inserts the reorders each primitive needs to read its inputs
// in an accepted format, orders the graph and allocates buffers on a
// backend.
//
// Example:
//
//	net, err := network.Compile(top, network.NewBuildOptions(), cpu.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := net.SetInputData("input", buf); err != nil {
//	    log.Fatal(err)
//	}
//	outputs, err := net.Execute(ctx)
package network

import (
	"github.com/born-ml/layoutnet/internal/compiler"
	"github.com/born-ml/layoutnet/internal/engine"
	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	internalnetwork "github.com/born-ml/layoutnet/internal/network"
	"github.com/born-ml/layoutnet/internal/topology"
	"github.com/sirupsen/logrus"
)

// Network is a compiled topology with allocated buffers.
type Network = internalnetwork.Network

// State is the run state of a Network.
type State = internalnetwork.State

// Run states.
const (
	StateIdle      State = internalnetwork.StateIdle
	StateBound     State = internalnetwork.StateBound
	StateRunning   State = internalnetwork.StateRunning
	StateCompleted State = internalnetwork.StateCompleted
	StateFailed    State = internalnetwork.StateFailed
)

// Backend allocates buffers and provides per-kind kernels.
type Backend = engine.Backend

// Kernel computes one primitive.
type Kernel = engine.Kernel

// Buffer is raw storage plus the layout describing it.
type Buffer = memory.Buffer

// BuildOptions configures compilation and execution.
type BuildOptions = compiler.BuildOptions

// Option mutates BuildOptions.
type Option = compiler.Option

// ExecutionError reports a failed run and the primitive it failed at.
type ExecutionError = internalnetwork.ExecutionError

// Execution errors, matched with errors.Is.
var (
	ErrUnboundInput     = internalnetwork.ErrUnboundInput
	ErrBackendExecution = internalnetwork.ErrBackendExecution
	ErrInvalidState     = internalnetwork.ErrInvalidState
)

// Compile builds a Network for top on backend. top is not modified.
func Compile(top *topology.Topology, opts BuildOptions, backend Backend) (*Network, error) {
	return internalnetwork.Compile(top, opts, backend)
}

// NewBuildOptions returns the default options with opts applied.
func NewBuildOptions(opts ...Option) BuildOptions {
	return compiler.NewBuildOptions(opts...)
}

// OptimizeData toggles the optional format refinements.
func OptimizeData(enabled bool) Option {
	return compiler.OptimizeData(enabled)
}

// Outputs names the primitives Execute returns.
func Outputs(ids ...string) Option {
	return compiler.Outputs(ids...)
}

// Workers bounds the number of primitives executed concurrently.
func Workers(n int) Option {
	return compiler.Workers(n)
}

// Logger sets the logger receiving debug traces.
func Logger(l logrus.FieldLogger) Option {
	return compiler.Logger(l)
}

// LoadBuildOptions reads BuildOptions from a YAML file.
func LoadBuildOptions(path string) (BuildOptions, error) {
	return compiler.LoadBuildOptions(path)
}

// Allocate creates a zeroed buffer for l.
func Allocate(l layout.Layout) (*Buffer, error) {
	return memory.Allocate(l)
}

// FromFloat32 creates an f32 buffer holding values in memory order.
func FromFloat32(l layout.Layout, values []float32) (*Buffer, error) {
	return memory.FromFloat32(l, values)
}
