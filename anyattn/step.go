package anyattn

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyocr"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var a Attention
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeAttention)
}

// A Step advances a decoder by one timestep.
//
// It attends over a feature sequence, combines the
// resulting context with a representation of the previous
// token, and updates a recurrent state.
type Step interface {
	anyocr.Parameterizer

	// Start produces zero states for n sequences.
	Start(n int) anydiff.Res

	// Hidden extracts the hidden vectors from a batch of n
	// states.
	Hidden(state anydiff.Res, n int) anydiff.Res

	// Step performs one timestep for a batch of sequences.
	//
	// The feature layout depends on the implementation.
	// The prev argument contains one vector per sequence.
	Step(state, feats, prev anydiff.Res, batch int, training bool) *StepResult
}

// StepResult is the output of a Step.
type StepResult struct {
	// State is the new recurrent state.
	State anydiff.Res

	// Weights is the packed batch-major (batch, T) matrix of
	// attention weights used to build the context.
	//
	// The weights are computed from pooled inputs, so they
	// should only be used for inspection.
	Weights anydiff.Res
}

// Attention scores a feature sequence against a hidden
// vector using the additive energy
//
//	Score * tanh(W1*feature + W2*hidden)
//
// and aggregates the features into a context vector.
//
// Energy applies W1 to the features (In1) and W2 to the
// hidden vectors (In2).
type Attention struct {
	Channels int
	Energy   *anyocr.AddMixer
	Score    *anyocr.FC

	// Trace, if non-nil, is applied to the normalized
	// weights before they are used.
	// It is typically an *anyocr.Debug, and it is not
	// serialized.
	Trace anyocr.Layer
}

// DeserializeAttention deserializes an Attention.
func DeserializeAttention(d []byte) (*Attention, error) {
	var channels serializer.Int
	res := &Attention{}
	err := serializer.DeserializeAny(d, &channels, &res.Energy, &res.Score)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Attention", err)
	}
	res.Channels = int(channels)
	return res, nil
}

// NewAttention creates a randomized Attention.
// Only the hidden projection has biases.
func NewAttention(c anyvec.Creator, featSize, hidden int, r *rand.Rand) *Attention {
	return &Attention{
		Channels: featSize,
		Energy: &anyocr.AddMixer{
			In1: anyocr.NewFCUnbiased(c, featSize, hidden, r),
			In2: anyocr.NewFC(c, hidden, hidden, r),
			Out: anyocr.Tanh,
		},
		Score: anyocr.NewFCUnbiased(c, hidden, 1, r),
	}
}

// Parameters returns the parameters of the energy mixer
// followed by those of the scorer.
func (a *Attention) Parameters() []*anydiff.Var {
	return anyocr.AllParameters(a.Energy, a.Score)
}

// SerializerType returns the unique ID used to serialize
// an Attention with the serializer package.
func (a *Attention) SerializerType() string {
	return "github.com/unixpickle/anyocr/anyattn.Attention"
}

// Serialize serializes the channel count and the
// projections.
func (a *Attention) Serialize() ([]byte, error) {
	return serializer.SerializeAny(serializer.Int(a.Channels), a.Energy, a.Score)
}

// seqLen computes T for a packed feature sequence.
func (a *Attention) seqLen(feats anydiff.Res, batch int) int {
	rowSize := batch * a.Channels
	n := feats.Output().Len()
	if rowSize == 0 || n == 0 || n%rowSize != 0 {
		panic(fmt.Sprintf("feature length %d is not a multiple of %d (batch %d, "+
			"%d channels)", n, rowSize, batch, a.Channels))
	}
	return n / rowSize
}

// energies computes one unnormalized score per feature
// vector, in the same order as the feature vectors.
//
// The hidden vectors must already be repeated so that
// there is one per feature vector.
func (a *Attention) energies(feats, repeated anydiff.Res, rows int) anydiff.Res {
	return a.Score.Apply(a.Energy.Mix(feats, repeated, rows), rows)
}

// weighted scales each feature vector by its weight.
// The weights must be in the same order as the features.
func (a *Attention) weighted(feats, weights anydiff.Res) anydiff.Res {
	c := feats.Output().Creator()
	rows := weights.Output().Len()
	expanded := anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: weights, Rows: rows, Cols: 1},
		&anydiff.Matrix{Data: constOnes(c, a.Channels), Rows: 1, Cols: a.Channels},
	)
	return anydiff.Mul(feats, expanded.Data)
}

// batchContext sums the weighted features of a batch-major
// (batch, T, C) sequence over T.
// The result is always a (batch, C) matrix, even when the
// batch has one sequence.
func (a *Attention) batchContext(feats, weights anydiff.Res, batch, seqLen int) anydiff.Res {
	prod := &anydiff.Matrix{
		Data: a.weighted(feats, weights),
		Rows: batch * seqLen,
		Cols: a.Channels,
	}
	// (C, batch, T) summed over T gives (C, batch).
	sums := anydiff.SumCols(&anydiff.Matrix{
		Data: anydiff.Transpose(prod).Data,
		Rows: a.Channels * batch,
		Cols: seqLen,
	})
	return anydiff.Transpose(&anydiff.Matrix{
		Data: sums,
		Rows: a.Channels,
		Cols: batch,
	}).Data
}

// timeContext sums the weighted features of a time-major
// (T, batch, C) sequence over T.
// The weights must be time-major as well.
func (a *Attention) timeContext(feats, weights anydiff.Res, batch, seqLen int) anydiff.Res {
	c := feats.Output().Creator()
	return anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: constOnes(c, seqLen), Rows: 1, Cols: seqLen},
		&anydiff.Matrix{
			Data: a.weighted(feats, weights),
			Rows: seqLen,
			Cols: batch * a.Channels,
		},
	).Data
}

func (a *Attention) trace(weights anydiff.Res, batch int) anydiff.Res {
	if a.Trace == nil {
		return weights
	}
	return a.Trace.Apply(weights, batch)
}

// repeatBatch repeats each row of a (batch, size) matrix
// seqLen times, producing a (batch, seqLen, size) tensor.
func repeatBatch(in anydiff.Res, batch, seqLen int) anydiff.Res {
	c := in.Output().Creator()
	size := in.Output().Len() / batch
	flipped := anydiff.Transpose(&anydiff.Matrix{Data: in, Rows: batch, Cols: size})
	outer := anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: flipped.Data, Rows: size * batch, Cols: 1},
		&anydiff.Matrix{Data: constOnes(c, seqLen), Rows: 1, Cols: seqLen},
	)
	return anydiff.Transpose(&anydiff.Matrix{
		Data: outer.Data,
		Rows: size,
		Cols: batch * seqLen,
	}).Data
}

// repeatTime repeats a whole (batch, size) matrix seqLen
// times, producing a (seqLen, batch, size) tensor.
func repeatTime(in anydiff.Res, seqLen int) anydiff.Res {
	c := in.Output().Creator()
	n := in.Output().Len()
	return anydiff.MatMul(false, false,
		&anydiff.Matrix{Data: constOnes(c, seqLen), Rows: seqLen, Cols: 1},
		&anydiff.Matrix{Data: in, Rows: 1, Cols: n},
	).Data
}

func constOnes(c anyvec.Creator, n int) anydiff.Res {
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(ones)))
}

func checkPrev(prev anydiff.Res, batch, size int) {
	if prev.Output().Len() != batch*size {
		panic(fmt.Sprintf("previous token length should be %d, but got %d",
			batch*size, prev.Output().Len()))
	}
}
