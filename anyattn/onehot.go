package anyattn

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// OneHot creates a constant batch of one-hot vectors.
//
// The i-th vector has a 1 at component indices[i] and 0
// everywhere else.
// It panics if an index is outside of [0, dim).
func OneHot(c anyvec.Creator, indices []int, dim int) anydiff.Res {
	data := make([]float64, len(indices)*dim)
	for i, idx := range indices {
		if idx < 0 || idx >= dim {
			panic(fmt.Sprintf("token index %d out of range [0, %d)", idx, dim))
		}
		data[i*dim+idx] = 1
	}
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(data)))
}

// MaxOneHot creates a constant batch of one-hot vectors
// marking the largest component of each of the rows of a
// packed matrix.
func MaxOneHot(scores anyvec.Vector, rows int) anydiff.Res {
	c := scores.Creator()
	mapper := anyvec.MapMax(scores, scores.Len()/rows)
	res := c.MakeVector(scores.Len())
	mapper.MapTranspose(constOnes(c, rows).Output(), res)
	return anydiff.NewConst(res)
}
