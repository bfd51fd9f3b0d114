// Package main provides the layoutnet CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/born-ml/layoutnet/backend/cpu"
	"github.com/born-ml/layoutnet/layout"
	"github.com/born-ml/layoutnet/network"
	"github.com/born-ml/layoutnet/topology"
	"github.com/sirupsen/logrus"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("layoutnet %s\n", version)
	case "kinds":
		kinds()
	case "formats":
		formats()
	case "check":
		if len(os.Args) < 3 {
			err = fmt.Errorf("usage: layoutnet check <options.yaml>")
			break
		}
		err = check(os.Args[2])
	case "compile":
		if len(os.Args) < 3 {
			err = fmt.Errorf("usage: layoutnet compile <graph.yaml> [options.yaml]")
			break
		}
		err = compile(os.Args[2], os.Args[3:])
	case "demo":
		err = demo()
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("layoutnet - dataflow graph compiler with layout-aware reorder insertion")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version              Show version")
	fmt.Println("  kinds                List primitive kinds supported by the CPU backend")
	fmt.Println("  formats              List data formats")
	fmt.Println("  check <options.yaml> Validate a build options file")
	fmt.Println("  compile <graph.yaml> [options.yaml]")
	fmt.Println("                       Compile a graph file and print the augmented graph")
	fmt.Println("  demo                 Compile and run a reshape+tile network")
}

func kinds() {
	for _, k := range cpu.New().SupportedKinds() {
		fmt.Println(k)
	}
}

func formats() {
	for _, f := range layout.Formats() {
		kind := "data"
		if f.IsWeights() {
			kind = "weights"
		}
		fmt.Printf("%-6s %-7s rank %d\n", f, kind, f.Rank())
	}
}

func check(path string) error {
	opts, err := network.LoadBuildOptions(path)
	if err != nil {
		return err
	}
	fmt.Printf("optimize_data: %t\n", opts.OptimizeData)
	fmt.Printf("outputs:       %v\n", opts.Outputs)
	fmt.Printf("parallel:      enabled=%t workers=%d min_chunk_size=%d\n",
		opts.Parallel.Enabled, opts.Parallel.NumWorkers, opts.Parallel.MinChunkSize)
	return nil
}

func compile(graph string, rest []string) error {
	top, err := topology.ReadFile(graph)
	if err != nil {
		return err
	}

	opts := network.NewBuildOptions()
	if len(rest) > 0 {
		if opts, err = network.LoadBuildOptions(rest[0]); err != nil {
			return err
		}
	}

	net, err := network.Compile(top, opts, cpu.New())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "compiled %d primitives (%d synthesized, %d optimized out)\n",
		len(net.PrimitiveIDs()), len(net.SynthesizedIDs()), len(net.OptimizedOut()))
	return topology.Write(os.Stdout, net.Topology())
}

func demo() error {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	in := layout.New(layout.F32, layout.BYXF, layout.NewShape(1, 2, 2, 1))
	top := topology.New()
	for _, p := range []*topology.Primitive{
		topology.InputLayout("input", in),
		topology.Reshape("reshape", "input", layout.NewShape(2, 1, 2, 1)),
		topology.Tile("tile", "reshape", layout.AxisY, 4),
	} {
		if err := top.Add(p); err != nil {
			return err
		}
	}

	net, err := network.Compile(top, network.NewBuildOptions(network.Logger(log)), cpu.New())
	if err != nil {
		return err
	}
	fmt.Printf("primitives:  %v\n", net.PrimitiveIDs())
	fmt.Printf("synthesized: %v\n", net.SynthesizedIDs())

	buf, err := network.FromFloat32(in, []float32{1, 0, 5, 1.5})
	if err != nil {
		return err
	}
	if err := net.SetInputData("input", buf); err != nil {
		return err
	}
	out, err := net.Execute(context.Background())
	if err != nil {
		return err
	}
	for _, id := range net.Outputs() {
		l, _ := net.Layout(id)
		fmt.Printf("%s %s: %v\n", id, l, out[id].AsFloat32())
	}
	return nil
}
