package cpu

import (
	"context"
	"fmt"

	"github.com/born-ml/layoutnet/internal/layout"
	"github.com/born-ml/layoutnet/internal/memory"
	"github.com/born-ml/layoutnet/internal/parallel"
	"github.com/born-ml/layoutnet/internal/primitive"
)

// convolution computes a direct 2D convolution.
//
// Input:   [b, f_in, y, x] in any accepted format
// Weights: [o, i, k_y, k_x] with o on the batch axis and i on the feature axis
// Output:  [b, o, out_y, out_x] in the input's format
//
// out_x = (x + 2*pad_x - k_x) / stride_x + 1, likewise for y. Sums accumulate
// in float64. Work is split per (batch, output feature).
func (cpu *CPUBackend) convolution(_ context.Context, p *primitive.Primitive, in []*memory.Buffer, out *memory.Buffer) error {
	d, ok := p.Desc.(primitive.Convolution)
	if !ok {
		return fmt.Errorf("convolution kernel got %s", p)
	}
	input, weights := in[0], in[1]
	var bias *memory.Buffer
	if len(in) == 3 {
		bias = in[2]
	}

	is, ws, os := input.Layout().Shape, weights.Layout().Shape, out.Layout().Shape
	if is.Feature != ws.Feature || os.Feature != ws.Batch {
		return fmt.Errorf("convolution %q: shapes %s * %s -> %s do not match", p.ID, is, ws, os)
	}
	sx, sy := d.Stride()

	parallel.ForBatch(os.Batch, os.Feature, func(b, o int) {
		for oy := 0; oy < os.Y; oy++ {
			for ox := 0; ox < os.X; ox++ {
				var sum float64
				if bias != nil {
					sum = bias.Load(o)
				}
				for i := 0; i < is.Feature; i++ {
					for ky := 0; ky < ws.Y; ky++ {
						y := oy*sy - d.PadY + ky
						if y < 0 || y >= is.Y {
							continue
						}
						for kx := 0; kx < ws.X; kx++ {
							x := ox*sx - d.PadX + kx
							if x < 0 || x >= is.X {
								continue
							}
							sum += input.At(layout.Coord{B: b, F: i, X: x, Y: y}) *
								weights.At(layout.Coord{B: o, F: i, X: kx, Y: ky})
						}
					}
				}
				out.Set(layout.Coord{B: b, F: o, X: ox, Y: oy}, sum)
			}
		}
	}, cpu.cfg)
	return nil
}
