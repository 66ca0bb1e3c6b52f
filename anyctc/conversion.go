package anyctc

import (
	"fmt"

	"github.com/unixpickle/anydiff/anyseq"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

var internalCreator = anyvec64.DefaultCreator{}

// vectorTo64 creates a vector with []float64 numeric list
// types.
func vectorTo64(v anyvec.Vector) anyvec.Vector {
	switch d := v.Data().(type) {
	case []float64:
		return internalCreator.MakeVectorData(d)
	case []float32:
		s := make([]float64, len(d))
		for i, x := range d {
			s[i] = float64(x)
		}
		return internalCreator.MakeVectorData(s)
	default:
		panic(fmt.Sprintf("unsupported numeric type: %T", d))
	}
}

// separateFloats splits a batch of sequences into
// sequences of []float64 frames.
func separateFloats(seqs anyseq.Seq) [][][]float64 {
	batches := seqs.Output()
	res64 := make([]*anyseq.Batch, len(batches))
	for i, x := range batches {
		res64[i] = &anyseq.Batch{
			Packed:  vectorTo64(x.Packed),
			Present: x.Present,
		}
	}
	var res [][][]float64
	for _, seq := range anyseq.SeparateSeqs(res64) {
		frames := make([][]float64, len(seq))
		for i, x := range seq {
			frames[i] = x.Data().([]float64)
		}
		res = append(res, frames)
	}
	return res
}
