// Package serialization reads and writes topologies as YAML graph files.
//
// A graph file lists primitives in any order; references are resolved when
// the decoded topology is compiled. Constant data is stored as a list of
// element values in memory order with an optional SHA-256 of the raw bytes:
//
//	version: 1
//	primitives:
//	  - id: input
//	    kind: input_layout
//	    layout: {type: f32, format: byxf, shape: [1, 2, 2, 1]}
//	  - id: reshape
//	    kind: reshape
//	    inputs: [input]
//	    shape: [2, 1, 2, 1]
//	  - id: tile
//	    kind: tile
//	    inputs: [reshape]
//	    axis: y
//	    tiles: 4
//
// Shapes are written b, f, x, y with an optional trailing z.
// Compiler-inserted reorders carry "synthesized: true", so an augmented
// topology written with Write compiles again without new reorders.
package serialization
