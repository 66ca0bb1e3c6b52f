package anyattn

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// A Warper randomly distorts rows of attention weights.
//
// Each call evenly spaces width coordinates in [-1, 1],
// blends one random adjacent pair of coordinates toward
// each other, and resamples every row along the resulting
// grid with linear interpolation.
type Warper struct {
	// Rand is the source of randomness.
	// If nil, the global source is used.
	Rand *rand.Rand
}

// Coords draws a sampling grid for rows of the given
// width.
//
// The second return value is false when the drawn index
// lands on a boundary, in which case the grid is evenly
// spaced and sampling along it is the identity.
func (w *Warper) Coords(width int) ([]float64, bool) {
	if width < 1 {
		panic("width must be positive")
	} else if width == 1 {
		return []float64{0}, false
	}
	coords := make([]float64, width)
	for i := range coords {
		coords[i] = float64(i)*2/float64(width-1) - 1
	}
	idx := int(w.float() * float64(width))
	if idx <= 0 || idx >= width-1 {
		return coords, false
	}
	beta := w.float() / 4
	value0 := beta*coords[idx] + (1-beta)*coords[idx-1]
	value1 := beta*coords[idx-1] + (1-beta)*coords[idx]
	coords[idx-1] = value0
	coords[idx] = value1
	return coords, true
}

// Apply warps a batch of rows.
//
// The input is a packed batch of rows, and the output has
// the same layout.
// When the draw does not perturb the grid, in is returned
// as-is.
func (w *Warper) Apply(in anydiff.Res, batch int) anydiff.Res {
	if batch == 0 || in.Output().Len()%batch != 0 {
		panic(fmt.Sprintf("batch size %d does not divide input length %d",
			batch, in.Output().Len()))
	}
	width := in.Output().Len() / batch
	coords, perturbed := w.Coords(width)
	if !perturbed {
		return in
	}
	s := newSampler(in.Output().Creator(), coords)
	mapped := batchMap(s.Neighbors, in.Output())
	anyvec.ScaleRepeated(mapped, s.Weights)
	return &warpRes{
		Sampler: s,
		In:      in,
		Out:     anyvec.SumCols(mapped, mapped.Len()/2),
		Batch:   batch,
	}
}

func (w *Warper) float() float64 {
	if w.Rand == nil {
		return rand.Float64()
	}
	return w.Rand.Float64()
}

// A sampler reads every output column from two
// neighboring input columns.
//
// Coordinates of -1 and 1 map to the first and last input
// columns, respectively.
type sampler struct {
	Neighbors anyvec.Mapper
	Weights   anyvec.Vector
}

func newSampler(c anyvec.Creator, coords []float64) *sampler {
	width := len(coords)
	var sources []int
	var amounts []float64
	for _, x := range coords {
		pos := (x + 1) / 2 * float64(width-1)
		if pos < 0 {
			pos = 0
		} else if pos > float64(width-1) {
			pos = float64(width - 1)
		}
		x1 := int(pos)
		x2 := x1 + 1
		if x2 >= width {
			x2 = width - 1
		}
		x1A := 1 - (pos - float64(x1))
		sources = append(sources, x1, x2)
		amounts = append(amounts, x1A, 1-x1A)
	}
	return &sampler{
		Neighbors: c.MakeMapper(width, sources),
		Weights:   c.MakeVectorData(c.MakeNumericList(amounts)),
	}
}

type warpRes struct {
	Sampler *sampler
	In      anydiff.Res
	Out     anyvec.Vector
	Batch   int
}

func (w *warpRes) Output() anyvec.Vector {
	return w.Out
}

func (w *warpRes) Vars() anydiff.VarSet {
	return w.In.Vars()
}

func (w *warpRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	weights := w.Sampler.Weights
	mappedDown := weights.Creator().MakeVector(weights.Len() * w.Batch)
	anyvec.AddRepeated(mappedDown, weights)
	anyvec.ScaleChunks(mappedDown, u)
	w.In.Propagate(batchMapTranspose(w.Sampler.Neighbors, mappedDown), g)
}

// batchMap applies a mapper to every chunk of a batch.
func batchMap(m anyvec.Mapper, in anyvec.Vector) anyvec.Vector {
	n := in.Len() / m.InSize()
	outs := make([]anyvec.Vector, n)
	for i := range outs {
		sub := in.Slice(i*m.InSize(), (i+1)*m.InSize())
		outs[i] = in.Creator().MakeVector(m.OutSize())
		m.Map(sub, outs[i])
	}
	return in.Creator().Concat(outs...)
}

// batchMapTranspose applies a mapper's transpose to every
// chunk of a batch.
func batchMapTranspose(m anyvec.Mapper, in anyvec.Vector) anyvec.Vector {
	n := in.Len() / m.OutSize()
	outs := make([]anyvec.Vector, n)
	for i := range outs {
		sub := in.Slice(i*m.OutSize(), (i+1)*m.OutSize())
		outs[i] = in.Creator().MakeVector(m.InSize())
		m.MapTranspose(sub, outs[i])
	}
	return in.Creator().Concat(outs...)
}
